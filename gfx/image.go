// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gfx

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f32"
)

// Texture is an RGBA8 image in the layout it is uploaded to the GPU:
// non-premultiplied, rows top to bottom, 4 bytes per texel.
type Texture struct {
	Width  int
	Height int
	Pix    []uint8
	// SRGB marks the color channels as sRGB encoded. They are decoded to
	// linear values when sampled, like an sRGB texture format would.
	SRGB bool
}

// NewTexture converts img to an sRGB encoded Texture.
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return &Texture{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    dst.Pix,
		SRGB:   true,
	}
}

// Texel returns the texel at (x, y) as seen by a shader: normalized, and
// decoded to linear if the texture is sRGB. The coordinates must be in
// bounds.
func (t *Texture) Texel(x, y int) f32.Vec4 {
	off := (y*t.Width + x) * 4
	p := t.Pix[off : off+4 : off+4]
	if t.SRGB {
		return f32.Vec4{
			srgbToLinear[p[0]],
			srgbToLinear[p[1]],
			srgbToLinear[p[2]],
			float32(p[3]) / 255,
		}
	}
	return f32.Vec4{
		float32(p[0]) / 255,
		float32(p[1]) / 255,
		float32(p[2]) / 255,
		float32(p[3]) / 255,
	}
}

// Size returns the texture's dimensions in texels.
func (t *Texture) Size() f32.Vec2 {
	return f32.Vec2{float32(t.Width), float32(t.Height)}
}
