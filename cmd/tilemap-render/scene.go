package main

import (
	"fmt"
	"image"
	_ "image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/math/f32"
	_ "golang.org/x/image/webp"
	"gopkg.in/yaml.v3"
	"honnef.co/go/color"
	"honnef.co/go/curve"
	"honnef.co/go/tiles"
	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/jmath"
)

type vec2 [2]float64

func (v vec2) curve() curve.Vec2 { return curve.Vec(v[0], v[1]) }

type sceneFile struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	View struct {
		// Rectangle shown by the image, in view space.
		Min    vec2        `yaml:"min"`
		Max    vec2        `yaml:"max"`
		Camera *cameraFile `yaml:"camera"`
	} `yaml:"view"`
	Tilemap tilemapFile `yaml:"tilemap"`
	Layers  []layerFile `yaml:"layers"`
}

// cameraFile maps world space to view space. The world is translated first,
// then scaled, then rotated about the origin.
type cameraFile struct {
	Translate vec2  `yaml:"translate"`
	Scale     *vec2 `yaml:"scale"`
	// Degrees, counter-clockwise.
	Rotate float64 `yaml:"rotate"`
}

func (c *cameraFile) affine() curve.Affine {
	if c == nil {
		return curve.Identity
	}
	scale := curve.Vec(1, 1)
	if c.Scale != nil {
		scale = c.Scale.curve()
	}
	return curve.Rotate(c.Rotate * math.Pi / 180).
		Mul(curve.Scale(scale.X, scale.Y)).
		Mul(curve.Translate(c.Translate.curve()))
}

type tilemapFile struct {
	// SQUARE or ISO_DIAMOND.
	Shape       string       `yaml:"shape"`
	TileSize    vec2         `yaml:"tile_size"`
	Scale       *vec2        `yaml:"scale"`
	Pivot       vec2         `yaml:"pivot"`
	Translation vec2         `yaml:"translation"`
	Texture     *textureFile `yaml:"texture"`
}

type textureFile struct {
	// Relative to the scene file.
	Path     string    `yaml:"path"`
	TileSize [2]uint32 `yaml:"tile_size"`
	Filter   string    `yaml:"filter"`
	// Texels are stored linearly instead of sRGB encoded.
	Linear bool `yaml:"linear"`
}

type layerFile struct {
	// Sizing and shading defines, e.g. [UNIFORM_SIZE, ATLAS].
	Features []string   `yaml:"features"`
	Extend   string     `yaml:"extend"`
	Tiles    []tileFile `yaml:"tiles"`
}

type tileFile struct {
	Index [2]int32 `yaml:"index"`
	// Gamma-encoded sRGB and alpha. Defaults to white.
	Color        *[4]float64 `yaml:"color"`
	Size         vec2        `yaml:"size"`
	TextureIndex uint32      `yaml:"texture_index"`
	Flip         []string    `yaml:"flip"`
}

type scene struct {
	width, height int
	viewProj      f32.Mat4
	layers        []*tiles.Layer
}

func decodeScene(r io.Reader) (*sceneFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var sf sceneFile
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("couldn't parse scene: %w", err)
	}
	if sf.Width <= 0 || sf.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", sf.Width, sf.Height)
	}
	if sf.View.Min[0] == sf.View.Max[0] || sf.View.Min[1] == sf.View.Max[1] {
		return nil, fmt.Errorf("empty view %v-%v", sf.View.Min, sf.View.Max)
	}
	return &sf, nil
}

// build turns the scene file into tilemap layers. Texture paths are resolved
// relative to dir.
func (sf *sceneFile) build(dir string) (*scene, error) {
	shape, err := parseShape(sf.Tilemap.Shape)
	if err != nil {
		return nil, err
	}
	tm := tiles.NewTilemap(shape, sf.Tilemap.TileSize.curve())
	if sf.Tilemap.Scale != nil {
		tm.TileRenderScale = sf.Tilemap.Scale.curve()
	}
	tm.Pivot = sf.Tilemap.Pivot.curve()
	tm.Translation = sf.Tilemap.Translation.curve()

	var tex *gfx.Texture
	if tf := sf.Tilemap.Texture; tf != nil {
		tex, err = loadTexture(filepath.Join(dir, tf.Path))
		if err != nil {
			return nil, err
		}
		tex.SRGB = !tf.Linear
		filter, err := parseFilter(tf.Filter)
		if err != nil {
			return nil, err
		}
		tm.Texture = &gfx.TextureDescriptor{
			Size:     [2]uint32{uint32(tex.Width), uint32(tex.Height)},
			TileSize: tf.TileSize,
			Filter:   filter,
		}
	}

	out := &scene{
		width:  sf.Width,
		height: sf.Height,
	}
	proj := jmath.Ortho(
		float32(sf.View.Min[0]), float32(sf.View.Max[0]),
		float32(sf.View.Min[1]), float32(sf.View.Max[1]),
		-1, 1)
	out.viewProj = jmath.ViewProjFromAffine(proj, sf.View.Camera.affine())
	for i, lf := range sf.Layers {
		defines := append([]string{sf.Tilemap.Shape}, lf.Features...)
		v, err := config.Resolve(defines)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		extend, err := parseExtend(lf.Extend)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layer := &tiles.Layer{
			Tilemap: tm,
			Sizing:  v.Sizing,
			Shading: v.Shading,
			Extend:  extend,
			Tiles:   make([]tiles.Tile, len(lf.Tiles)),
		}
		if v.Shading.IsTextured() {
			layer.Texture = tex
		}
		for j, tf := range lf.Tiles {
			t, err := tf.tile()
			if err != nil {
				return nil, fmt.Errorf("layer %d, tile %d: %w", i, j, err)
			}
			layer.Tiles[j] = t
		}
		out.layers = append(out.layers, layer)
	}
	return out, nil
}

func (tf *tileFile) tile() (tiles.Tile, error) {
	t := tiles.Tile{
		Index:        tf.Index,
		Size:         tf.Size.curve(),
		TextureIndex: tf.TextureIndex,
	}
	if c := tf.Color; c != nil {
		cc := color.Make(color.SRGB, c[0], c[1], c[2], c[3])
		t.Color = &cc
	}
	for _, f := range tf.Flip {
		switch f {
		case "horizontal":
			t.Flip |= encoding.FlipHorizontal
		case "vertical":
			t.Flip |= encoding.FlipVertical
		default:
			return tiles.Tile{}, fmt.Errorf("unknown flip %q", f)
		}
	}
	return t, nil
}

func (s *scene) draw(ts *tiles.Scene) error {
	for _, l := range s.layers {
		if err := ts.DrawLayer(l, s.viewProj); err != nil {
			return err
		}
	}
	return nil
}

func loadTexture(path string) (*gfx.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode %s: %w", path, err)
	}
	return gfx.NewTexture(img), nil
}

func parseShape(s string) (config.Shape, error) {
	for _, shape := range []config.Shape{config.Square, config.IsometricDiamond} {
		if s == shape.Define() {
			return shape, nil
		}
	}
	return 0, &config.FeatureError{Group: config.GroupShape, Options: []string{s}, Err: config.ErrUnknownFeature}
}

func parseFilter(s string) (gfx.Filter, error) {
	switch s {
	case "", "nearest":
		return gfx.Nearest, nil
	case "linear":
		return gfx.Linear, nil
	default:
		return 0, fmt.Errorf("unknown filter %q", s)
	}
}

func parseExtend(s string) (gfx.Extend, error) {
	switch s {
	case "", "pad":
		return gfx.Pad, nil
	case "repeat":
		return gfx.Repeat, nil
	case "reflect":
		return gfx.Reflect, nil
	default:
		return 0, fmt.Errorf("unknown extend mode %q", s)
	}
}
