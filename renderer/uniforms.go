package renderer

import (
	"structs"

	"golang.org/x/image/math/f32"
	"honnef.co/go/tiles/jmath"
)

// These types must be kept in sync with the definitions in
// shaders/wgsl/shared/common.wgsl.

type TilemapUniform struct {
	_ structs.HostLayout

	TileRenderSize  f32.Vec2
	TileRenderScale f32.Vec2
	// Anchor within the tile quad, in [0, 1]^2.
	Pivot       f32.Vec2
	Translation f32.Vec2
	// Size of a tile in the atlas for atlas shading, of the whole texture
	// otherwise. Texel units.
	TextureSize f32.Vec2
	_           [2]float32
}

type ViewUniform struct {
	_ structs.HostLayout

	// Column-major.
	ViewProj [16]float32
}

func NewViewUniform(viewProj f32.Mat4) ViewUniform {
	return ViewUniform{ViewProj: jmath.ColumnMajor(&viewProj)}
}
