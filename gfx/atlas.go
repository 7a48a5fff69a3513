package gfx

import (
	"fmt"
	"structs"

	"golang.org/x/image/math/f32"
	"honnef.co/go/tiles/jmath"
)

// TextureDescriptor describes a texture that is cut into a uniform grid of
// equally sized tiles, indexed row by row starting at the top left.
type TextureDescriptor struct {
	// Size of the whole texture, in texels.
	Size [2]uint32
	// Size of a single tile, in texels.
	TileSize [2]uint32
	Filter   Filter
}

func (desc *TextureDescriptor) Columns() uint32 {
	if desc.TileSize[0] == 0 {
		return 0
	}
	return desc.Size[0] / desc.TileSize[0]
}

func (desc *TextureDescriptor) Rows() uint32 {
	if desc.TileSize[1] == 0 {
		return 0
	}
	return desc.Size[1] / desc.TileSize[1]
}

// Count returns the number of whole tiles in the texture.
func (desc *TextureDescriptor) Count() uint32 {
	return desc.Columns() * desc.Rows()
}

// TileOrigin returns the texel position of the top left corner of the tile.
func (desc *TextureDescriptor) TileOrigin(index uint32) (f32.Vec2, error) {
	if index >= desc.Count() {
		return f32.Vec2{}, fmt.Errorf("texture index %d out of range [0, %d)", index, desc.Count())
	}
	cols := desc.Columns()
	return f32.Vec2{
		float32(index%cols) * float32(desc.TileSize[0]),
		float32(index/cols) * float32(desc.TileSize[1]),
	}, nil
}

// AtlasRect returns the normalized rectangle covered by the tile.
func (desc *TextureDescriptor) AtlasRect(index uint32) (AtlasRect, error) {
	origin, err := desc.TileOrigin(index)
	if err != nil {
		return AtlasRect{}, err
	}
	size := f32.Vec2{float32(desc.Size[0]), float32(desc.Size[1])}
	tile := f32.Vec2{float32(desc.TileSize[0]), float32(desc.TileSize[1])}
	return AtlasRect{
		Min: jmath.Div2(origin, size),
		Max: jmath.Div2(jmath.Add2(origin, tile), size),
	}, nil
}

// TexelSize returns the whole texture's size as floats.
func (desc *TextureDescriptor) TexelSize() f32.Vec2 {
	return f32.Vec2{float32(desc.Size[0]), float32(desc.Size[1])}
}

// TileTexelSize returns a single tile's size as floats.
func (desc *TextureDescriptor) TileTexelSize() f32.Vec2 {
	return f32.Vec2{float32(desc.TileSize[0]), float32(desc.TileSize[1])}
}

// AtlasRect is a normalized sub-rectangle of a texture. Its layout matches
// the atlas uniform block.
type AtlasRect struct {
	_ structs.HostLayout

	Min f32.Vec2
	Max f32.Vec2
}

// FullRect covers the whole texture.
var FullRect = AtlasRect{Max: f32.Vec2{1, 1}}

// Remap maps uv from [0, 1]^2 into the rectangle.
func (r AtlasRect) Remap(uv f32.Vec2) f32.Vec2 {
	return jmath.Add2(jmath.Mul2(uv, jmath.Sub2(r.Max, r.Min)), r.Min)
}
