package tiles

import (
	"errors"
	"fmt"

	"golang.org/x/image/math/f32"
	"honnef.co/go/color"
	"honnef.co/go/curve"
	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/jmath"
	"honnef.co/go/tiles/renderer"
)

var (
	ErrNoTexture      = errors.New("tilemap has no texture descriptor")
	ErrLayoutMismatch = errors.New("encoding doesn't match shading")
)

// Tilemap holds the properties shared by all tiles of a map. Positions are in
// world units, with y pointing up.
type Tilemap struct {
	Shape config.Shape
	// Size of a tile's slot in the grid, and the default size of a tile.
	TileRenderSize curve.Vec2
	// Scales both slots and tiles.
	TileRenderScale curve.Vec2
	// Anchor of a tile within its quad, in [0, 1]^2. The zero value anchors
	// tiles at their bottom left corner.
	Pivot       curve.Vec2
	Translation curve.Vec2
	// The texture tiles are cut from. Required by textured and atlas
	// shading.
	Texture *gfx.TextureDescriptor
}

// NewTilemap returns a tilemap with unit scale and no texture.
func NewTilemap(shape config.Shape, tileSize curve.Vec2) *Tilemap {
	return &Tilemap{
		Shape:           shape,
		TileRenderSize:  tileSize,
		TileRenderScale: curve.Vec(1, 1),
	}
}

// Variant returns the variant for drawing this tilemap's tiles.
func (tm *Tilemap) Variant(sizing config.Sizing, shading config.Shading) (config.Variant, error) {
	v := config.Variant{Shape: tm.Shape, Sizing: sizing, Shading: shading}
	if err := v.Validate(); err != nil {
		return config.Variant{}, err
	}
	if shading.IsTextured() && tm.Texture == nil {
		return config.Variant{}, ErrNoTexture
	}
	return v, nil
}

// Uniform returns the tilemap uniform for the given shading.
func (tm *Tilemap) Uniform(shading config.Shading) renderer.TilemapUniform {
	u := renderer.TilemapUniform{
		TileRenderSize:  jmath.Vec2FromCurve(tm.TileRenderSize),
		TileRenderScale: jmath.Vec2FromCurve(tm.TileRenderScale),
		Pivot:           jmath.Vec2FromCurve(tm.Pivot),
		Translation:     jmath.Vec2FromCurve(tm.Translation),
	}
	if tm.Texture != nil {
		switch shading {
		case config.Textured:
			u.TextureSize = tm.Texture.TexelSize()
		case config.Atlas:
			u.TextureSize = tm.Texture.TileTexelSize()
		}
	}
	return u
}

// IndexToWorld returns the world position of the center of the tile at
// index, for tiles of the default size.
func (tm *Tilemap) IndexToWorld(index [2]int32) curve.Point {
	slot := curve.Vec(
		tm.TileRenderSize.X*tm.TileRenderScale.X,
		tm.TileRenderSize.Y*tm.TileRenderScale.Y,
	)
	x := float64(index[0])
	y := float64(index[1])
	var origin curve.Vec2
	switch tm.Shape {
	case config.IsometricDiamond:
		origin = curve.Vec((x-y-1)/2*slot.X, (x+y)/2*slot.Y)
	default:
		origin = curve.Vec(x*slot.X, y*slot.Y)
	}
	return curve.Point{
		X: tm.Translation.X + origin.X + (0.5-tm.Pivot.X)*slot.X,
		Y: tm.Translation.Y + origin.Y + (0.5-tm.Pivot.Y)*slot.Y,
	}
}

// Tile is a single tile of a tilemap.
type Tile struct {
	Index [2]int32
	// A nil color draws the tile white.
	Color *color.Color
	// Only used with per-tile sizing. The zero value uses the tilemap's
	// TileRenderSize.
	Size curve.Vec2
	// Tile of the tilemap's texture to draw. Ignored by pure color shading.
	TextureIndex uint32
	// Ignored by pure color shading.
	Flip encoding.Flip
}

// AppendTile encodes the four corners of tile. enc must have been created
// for one of the tilemap's variants with the given shading.
func (tm *Tilemap) AppendTile(enc *encoding.Encoding, shading config.Shading, tile *Tile) error {
	if enc.Layout.HasUV != shading.IsTextured() {
		return fmt.Errorf("%w: %s", ErrLayoutMismatch, shading)
	}

	c := gfx.White
	if tile.Color != nil {
		c = gfx.FromColor(tile.Color)
	}
	var size f32.Vec2
	if enc.Layout.HasSize {
		size = jmath.Vec2FromCurve(tile.Size)
		if size == (f32.Vec2{}) {
			size = jmath.Vec2FromCurve(tm.TileRenderSize)
		}
	}

	var uvs [4]f32.Vec2
	if shading.IsTextured() {
		if tm.Texture == nil {
			return ErrNoTexture
		}
		origin, err := tm.Texture.TileOrigin(tile.TextureIndex)
		if err != nil {
			return fmt.Errorf("tile %v: %w", tile.Index, err)
		}
		flip := tile.Flip
		if shading == config.Atlas {
			// Atlas coordinates are relative to the tile, the atlas rect
			// places them in the texture. The vertex stage applies the flip.
			origin = f32.Vec2{}
			flip = 0
		}
		uvs = cornerUVs(origin, tm.Texture.TileTexelSize(), flip)
	}

	for corner := range uint32(4) {
		enc.Encode(&encoding.TileVertex{
			Index:  tile.Index,
			Corner: corner,
			Flip:   tile.Flip,
			Color:  c,
			Size:   size,
			UV:     uvs[corner],
		})
	}
	return nil
}

// cornerUVs returns the texel coordinates of the quad corners. Texture rows
// go down while world y goes up, so the quad's bottom maps to the tile's
// last row.
func cornerUVs(origin, size f32.Vec2, flip encoding.Flip) [4]f32.Vec2 {
	x0, y0 := origin[0], origin[1]
	x1, y1 := x0+size[0], y0+size[1]
	if flip&encoding.FlipHorizontal != 0 {
		x0, x1 = x1, x0
	}
	if flip&encoding.FlipVertical != 0 {
		y0, y1 = y1, y0
	}
	return [4]f32.Vec2{
		{x0, y1},
		{x0, y0},
		{x1, y0},
		{x1, y1},
	}
}
