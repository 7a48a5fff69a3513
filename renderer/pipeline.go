package renderer

import (
	"fmt"

	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
)

type BindType int

const (
	BindTypeUniform BindType = iota + 1
	BindTypeTexture
	BindTypeSampler
)

func (typ BindType) String() string {
	switch typ {
	case BindTypeUniform:
		return "uniform"
	case BindTypeTexture:
		return "texture"
	case BindTypeSampler:
		return "sampler"
	default:
		return fmt.Sprintf("BindType(%d)", int(typ))
	}
}

type Stage uint8

const (
	StageVertex Stage = 1 << iota
	StageFragment
)

// Binding slots in bind group 0.
const (
	BindingTilemap   = 0
	BindingView      = 1
	BindingTexture   = 2
	BindingSampler   = 3
	BindingAtlasRect = 4
)

type BindEntry struct {
	Binding uint32
	Type    BindType
	Stages  Stage
	Name    string
}

// Pipeline describes everything an engine needs to build the render pipeline
// of one variant.
type Pipeline struct {
	Variant config.Variant
	Label   string
	Entries []BindEntry
	Layout  *encoding.Layout
}

func NewPipeline(v config.Variant) (*Pipeline, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("couldn't create pipeline: %w", err)
	}
	p := &Pipeline{
		Variant: v,
		Label:   "tilemap_" + v.Name(),
		Layout:  encoding.NewLayout(v),
		Entries: []BindEntry{
			{BindingTilemap, BindTypeUniform, StageVertex, "tilemap"},
			{BindingView, BindTypeUniform, StageVertex, "view"},
		},
	}
	if v.Shading.IsTextured() {
		p.Entries = append(p.Entries,
			BindEntry{BindingTexture, BindTypeTexture, StageFragment, "color_texture"},
			BindEntry{BindingSampler, BindTypeSampler, StageFragment, "color_texture_sampler"},
		)
	}
	if v.Shading == config.Atlas {
		p.Entries = append(p.Entries,
			BindEntry{BindingAtlasRect, BindTypeUniform, StageFragment, "atlas_rect"})
	}
	return p, nil
}
