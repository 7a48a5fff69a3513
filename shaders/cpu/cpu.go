// Copyright 2023 the Vello Authors
// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT OR Unlicense

// Package cpu provides CPU implementations of the tilemap shader stages.
//
// The stages replicate the WGSL in shaders/wgsl one to one, which makes them
// useful for testing the GPU pipelines and for rendering without a GPU. They
// are not optimized.
package cpu

import (
	"fmt"
	"unsafe"

	"golang.org/x/image/math/f32"
	"honnef.co/go/safeish"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/jmath"
	"honnef.co/go/tiles/renderer"
)

type VertexOutput struct {
	// Clip space.
	Position f32.Vec4
	// Linear, with alpha gamma-expanded, too.
	Color f32.Vec4
	// Normalized. Zero for untextured variants.
	UV f32.Vec2
}

// MeshOrigin places a tile's quad in tilemap space.
type MeshOrigin interface {
	Origin(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2
}

type Square struct{}

func (Square) Origin(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2 {
	slot := jmath.Mul2(tm.TileRenderSize, tm.TileRenderScale)
	return jmath.Mul2(f32.Vec2{float32(in.Index[0]), float32(in.Index[1])}, slot)
}

type IsometricDiamond struct{}

func (IsometricDiamond) Origin(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2 {
	slot := jmath.Mul2(tm.TileRenderSize, tm.TileRenderScale)
	x := float32(in.Index[0])
	y := float32(in.Index[1])
	return jmath.Mul2(f32.Vec2{(x - y - 1) / 2, (x + y) / 2}, slot)
}

// SizeSource determines the rendered size of a tile.
type SizeSource interface {
	TileRenderSize(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2
}

type UniformSize struct{}

func (UniformSize) TileRenderSize(_ *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2 {
	return jmath.Mul2(tm.TileRenderSize, tm.TileRenderScale)
}

type PerTileSize struct{}

func (PerTileSize) TileRenderSize(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2 {
	return jmath.Mul2(in.Size, tm.TileRenderScale)
}

// TexCoord computes the normalized texture coordinate passed to the
// fragment stage.
type TexCoord interface {
	UV(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2
}

type NoTexCoord struct{}

func (NoTexCoord) UV(*encoding.TileVertex, *renderer.TilemapUniform) f32.Vec2 {
	return f32.Vec2{}
}

type TexelTexCoord struct{}

func (TexelTexCoord) UV(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2 {
	return jmath.Div2(in.UV, tm.TextureSize)
}

// AtlasTexCoord is TexelTexCoord followed by the tile's flips.
type AtlasTexCoord struct{}

func (AtlasTexCoord) UV(in *encoding.TileVertex, tm *renderer.TilemapUniform) f32.Vec2 {
	uv := jmath.Div2(in.UV, tm.TextureSize)
	if in.Flip&encoding.FlipHorizontal != 0 {
		uv[0] = 1 - uv[0]
	}
	if in.Flip&encoding.FlipVertical != 0 {
		uv[1] = 1 - uv[1]
	}
	return uv
}

// CornerOffset returns the offset of a quad corner from the quad's origin.
// Corners are numbered counter-clockwise starting at the origin; corner is
// taken modulo 4.
func CornerOffset(corner uint32, size f32.Vec2) f32.Vec2 {
	translations := [4]f32.Vec2{
		{0, 0},
		{0, size[1]},
		{size[0], size[1]},
		{size[0], 0},
	}
	return translations[corner%4]
}

// PivotOffset is CornerOffset re-anchored at pivot, a fraction of size.
func PivotOffset(corner uint32, size, pivot f32.Vec2) f32.Vec2 {
	return jmath.Sub2(CornerOffset(corner, size), jmath.Mul2(pivot, size))
}

type VertexFunc func(in *encoding.TileVertex, tm *renderer.TilemapUniform, view *renderer.ViewUniform) VertexOutput

// Vertex is the tilemap vertex stage, specialized by shape, size source and
// texture coordinate source.
func Vertex[O MeshOrigin, S SizeSource, T TexCoord](
	in *encoding.TileVertex,
	tm *renderer.TilemapUniform,
	view *renderer.ViewUniform,
) VertexOutput {
	var (
		origin O
		sizer  S
		tex    T
	)
	meshOrigin := origin.Origin(in, tm)
	size := sizer.TileRenderSize(in, tm)
	positionModel := jmath.Add2(meshOrigin, PivotOffset(in.Corner, size, tm.Pivot))
	positionWorld := jmath.Add2(tm.Translation, positionModel)

	return VertexOutput{
		Position: jmath.MulColumnMajor(&view.ViewProj, f32.Vec4{positionWorld[0], positionWorld[1], 0, 1}),
		Color:    gfx.GammaExpand(in.Color),
		UV:       tex.UV(in, tm),
	}
}

type FragmentBindings struct {
	Texture *gfx.Texture
	Sampler gfx.Sampler
	Atlas   gfx.AtlasRect
}

type FragmentFunc func(in *VertexOutput, b *FragmentBindings) f32.Vec4

func PureColorFragment(in *VertexOutput, _ *FragmentBindings) f32.Vec4 {
	return in.Color
}

func TexturedFragment(in *VertexOutput, b *FragmentBindings) f32.Vec4 {
	return jmath.Mul4(b.Sampler.Sample(b.Texture, in.UV), in.Color)
}

func AtlasFragment(in *VertexOutput, b *FragmentBindings) f32.Vec4 {
	return jmath.Mul4(b.Sampler.Sample(b.Texture, b.Atlas.Remap(in.UV)), in.Color)
}

type CPUBinding interface {
	// One of CPUBuffer, CPUTexture, CPUSampler
}

type CPUBuffer []byte

type CPUTexture struct {
	*gfx.Texture
}

type CPUSampler gfx.Sampler

// XXX move this into safeish
func fromBytes[E any, T *E](b []byte) T {
	if uintptr(len(b)) < unsafe.Sizeof(*new(E)) {
		panic(fmt.Sprintf(
			"buffer of size %d cannot represent object of size %d", len(b), unsafe.Sizeof(*new(E))))
	}

	return safeish.Cast[T](&b[0])
}
