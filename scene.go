package tiles

import (
	"fmt"

	"golang.org/x/image/math/f32"
	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/internal/logging"
	"honnef.co/go/tiles/renderer"
)

// Layer is a set of tiles of one tilemap drawn with the same features.
type Layer struct {
	Tilemap *Tilemap
	Sizing  config.Sizing
	Shading config.Shading
	// Pixels of Tilemap.Texture. Required by textured and atlas shading.
	Texture *gfx.Texture
	// Addressing mode for texture coordinates outside a tile's texels.
	Extend gfx.Extend
	Tiles  []Tile
}

// Scene collects the draw batches of a frame, in drawing order.
type Scene struct {
	batches   []*renderer.DrawBatch
	pipelines map[config.Variant]*renderer.Pipeline
}

func (s *Scene) Reset() {
	clear(s.batches)
	s.batches = s.batches[:0]
}

func (s *Scene) Batches() []*renderer.DrawBatch {
	return s.batches
}

func (s *Scene) pipeline(v config.Variant) (*renderer.Pipeline, error) {
	if p, ok := s.pipelines[v]; ok {
		return p, nil
	}
	p, err := renderer.NewPipeline(v)
	if err != nil {
		return nil, err
	}
	if s.pipelines == nil {
		s.pipelines = make(map[config.Variant]*renderer.Pipeline)
	}
	s.pipelines[v] = p
	return p, nil
}

// DrawLayer encodes the layer's tiles. viewProj maps world space to clip
// space. Atlas layers produce one batch per distinct texture index, as the
// atlas rect is shared by all tiles of a draw.
func (s *Scene) DrawLayer(layer *Layer, viewProj f32.Mat4) error {
	tm := layer.Tilemap
	v, err := tm.Variant(layer.Sizing, layer.Shading)
	if err != nil {
		return fmt.Errorf("couldn't draw layer: %w", err)
	}
	p, err := s.pipeline(v)
	if err != nil {
		return err
	}
	if layer.Shading.IsTextured() && layer.Texture == nil {
		return fmt.Errorf("%s: %w: color_texture", p.Label, renderer.ErrMissingBinding)
	}

	base := renderer.DrawBatch{
		Pipeline: p,
		Tilemap:  tm.Uniform(layer.Shading),
		View:     renderer.NewViewUniform(viewProj),
		Texture:  layer.Texture,
	}
	if tm.Texture != nil {
		base.Sampler = gfx.Sampler{Filter: tm.Texture.Filter, Extend: layer.Extend}
	}

	var batches []*renderer.DrawBatch
	if layer.Shading != config.Atlas {
		b := base
		b.Vertices = encoding.New(v)
		for i := range layer.Tiles {
			if err := tm.AppendTile(b.Vertices, layer.Shading, &layer.Tiles[i]); err != nil {
				return err
			}
		}
		batches = append(batches, &b)
	} else {
		byIndex := make(map[uint32]*renderer.DrawBatch)
		for i := range layer.Tiles {
			tile := &layer.Tiles[i]
			b, ok := byIndex[tile.TextureIndex]
			if !ok {
				rect, err := tm.Texture.AtlasRect(tile.TextureIndex)
				if err != nil {
					return fmt.Errorf("tile %v: %w", tile.Index, err)
				}
				nb := base
				nb.Atlas = &rect
				nb.Vertices = encoding.New(v)
				b = &nb
				byIndex[tile.TextureIndex] = b
				batches = append(batches, b)
			}
			if err := tm.AppendTile(b.Vertices, layer.Shading, tile); err != nil {
				return err
			}
		}
	}

	logging.Logger().Debug("drew layer",
		"variant", v,
		"tiles", len(layer.Tiles),
		"batches", len(batches))
	s.batches = append(s.batches, batches...)
	return nil
}

// Record appends the scene's batches to rec.
func (s *Scene) Record(rec *renderer.Recording) error {
	for _, b := range s.batches {
		if err := rec.RenderBatch(b); err != nil {
			return err
		}
	}
	return nil
}
