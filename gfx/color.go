// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gfx

import (
	"golang.org/x/image/math/f32"
	"honnef.co/go/color"
	"honnef.co/go/tiles/jmath"
)

// Gamma is the exponent used to move vertex colors from display to linear
// space.
const Gamma = 2.2

// GammaExpand raises every component of c, alpha included, to Gamma.
func GammaExpand(c f32.Vec4) f32.Vec4 {
	return jmath.Pow4(c, Gamma)
}

// FromColor returns the gamma-encoded sRGB components and alpha of c, which
// is the form tile colors are stored in.
func FromColor(c *color.Color) f32.Vec4 {
	cc := c.Convert(color.SRGB)
	return f32.Vec4{
		float32(cc.Values[0]),
		float32(cc.Values[1]),
		float32(cc.Values[2]),
		float32(cc.Values[3]),
	}
}

// EncodeSRGB converts linear sRGB to gamma-encoded sRGB, the way writing to
// an sRGB render target does. Alpha is passed through.
func EncodeSRGB(c f32.Vec4) f32.Vec4 {
	cc := color.Make(color.LinearSRGB, float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3]))
	cc = cc.Convert(color.SRGB)
	return f32.Vec4{
		float32(cc.Values[0]),
		float32(cc.Values[1]),
		float32(cc.Values[2]),
		c[3],
	}
}

// srgbToLinear maps 8-bit sRGB encoded values to linear values.
var srgbToLinear = func() [256]float32 {
	var lut [256]float32
	for i := range lut {
		v := float64(i) / 255
		c := color.Make(color.SRGB, v, v, v, 1).Convert(color.LinearSRGB)
		lut[i] = float32(c.Values[0])
	}
	return lut
}()

// White is the default tile color.
var White = f32.Vec4{1, 1, 1, 1}
