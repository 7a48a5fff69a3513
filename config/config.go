// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package config describes the build-time feature groups of the tilemap
// shaders and resolves sets of preprocessor defines into pipeline variants.
//
// There are three groups, and every variant selects exactly one option from
// each: the tile shape, the source of the tile size, and the shading mode.
// Each option corresponds to one WGSL preprocessor define.
package config

import (
	"iter"
	"strings"
)

type Shape int

const (
	Square Shape = iota + 1
	IsometricDiamond
)

func (s Shape) String() string {
	switch s {
	case Square:
		return "Square"
	case IsometricDiamond:
		return "IsometricDiamond"
	default:
		return "Unknown"
	}
}

// Define returns the preprocessor define that selects s.
func (s Shape) Define() string {
	switch s {
	case Square:
		return "SQUARE"
	case IsometricDiamond:
		return "ISO_DIAMOND"
	default:
		return ""
	}
}

type Sizing int

const (
	// UniformSize uses the tilemap's base tile size for every tile.
	UniformSize Sizing = iota + 1
	// PerTileSize reads the size from a vertex attribute.
	PerTileSize
)

func (s Sizing) String() string {
	switch s {
	case UniformSize:
		return "UniformSize"
	case PerTileSize:
		return "PerTileSize"
	default:
		return "Unknown"
	}
}

func (s Sizing) Define() string {
	switch s {
	case UniformSize:
		return "UNIFORM_SIZE"
	case PerTileSize:
		return "PER_TILE_SIZE"
	default:
		return ""
	}
}

type Shading int

const (
	// PureColor outputs the vertex color.
	PureColor Shading = iota + 1
	// Textured multiplies a texture sample by the vertex color.
	Textured
	// Atlas is like Textured, but remaps texture coordinates into a
	// sub-rectangle of a shared atlas before sampling.
	Atlas
)

func (s Shading) String() string {
	switch s {
	case PureColor:
		return "PureColor"
	case Textured:
		return "Textured"
	case Atlas:
		return "Atlas"
	default:
		return "Unknown"
	}
}

func (s Shading) Define() string {
	switch s {
	case PureColor:
		return "PURE_COLOR"
	case Textured:
		return "TEXTURED"
	case Atlas:
		return "ATLAS"
	default:
		return ""
	}
}

// IsTextured reports whether the shading mode samples a texture.
func (s Shading) IsTextured() bool {
	return s == Textured || s == Atlas
}

var (
	shapes   = [...]Shape{Square, IsometricDiamond}
	sizings  = [...]Sizing{UniformSize, PerTileSize}
	shadings = [...]Shading{PureColor, Textured, Atlas}
)

// Variant is one fully resolved combination of feature options. The zero
// value is invalid.
type Variant struct {
	Shape   Shape
	Sizing  Sizing
	Shading Shading
}

// Name returns a stable, file-name friendly identifier such as
// "square_uniform_size_pure_color".
func (v Variant) Name() string {
	defines := v.Defines()
	for i, d := range defines {
		defines[i] = strings.ToLower(d)
	}
	return strings.Join(defines, "_")
}

// Defines returns the preprocessor defines that select v, in group order.
func (v Variant) Defines() []string {
	return []string{v.Shape.Define(), v.Sizing.Define(), v.Shading.Define()}
}

func (v Variant) String() string {
	return v.Shape.String() + "/" + v.Sizing.String() + "/" + v.Shading.String()
}

// Validate checks that every group has exactly one known option selected.
func (v Variant) Validate() error {
	if v.Shape.Define() == "" {
		return &FeatureError{Group: GroupShape, Err: ErrMissingOption}
	}
	if v.Sizing.Define() == "" {
		return &FeatureError{Group: GroupSizing, Err: ErrMissingOption}
	}
	if v.Shading.Define() == "" {
		return &FeatureError{Group: GroupShading, Err: ErrMissingOption}
	}
	return nil
}

// Variants yields all valid variants.
func Variants() iter.Seq[Variant] {
	return func(yield func(Variant) bool) {
		for _, shape := range shapes {
			for _, sizing := range sizings {
				for _, shading := range shadings {
					if !yield(Variant{shape, sizing, shading}) {
						return
					}
				}
			}
		}
	}
}

// Resolve turns a set of defines into a variant. Every group must have
// exactly one option; unknown defines are rejected. Defines are counted, not
// deduplicated, so naming the same option twice (SQUARE SQUARE) is reported
// as ErrConflictingOptions.
func Resolve(defines []string) (Variant, error) {
	var v Variant
	var shapeOpts, sizeOpts, shOpts []string
	for _, d := range defines {
		switch {
		case d == Square.Define():
			v.Shape = Square
			shapeOpts = append(shapeOpts, d)
		case d == IsometricDiamond.Define():
			v.Shape = IsometricDiamond
			shapeOpts = append(shapeOpts, d)
		case d == UniformSize.Define():
			v.Sizing = UniformSize
			sizeOpts = append(sizeOpts, d)
		case d == PerTileSize.Define():
			v.Sizing = PerTileSize
			sizeOpts = append(sizeOpts, d)
		case d == PureColor.Define():
			v.Shading = PureColor
			shOpts = append(shOpts, d)
		case d == Textured.Define():
			v.Shading = Textured
			shOpts = append(shOpts, d)
		case d == Atlas.Define():
			v.Shading = Atlas
			shOpts = append(shOpts, d)
		default:
			return Variant{}, &FeatureError{Options: []string{d}, Err: ErrUnknownFeature}
		}
	}

	groups := [...]struct {
		name string
		opts []string
	}{
		{GroupShape, shapeOpts},
		{GroupSizing, sizeOpts},
		{GroupShading, shOpts},
	}
	for _, g := range groups {
		switch len(g.opts) {
		case 0:
			return Variant{}, &FeatureError{Group: g.name, Err: ErrMissingOption}
		case 1:
		default:
			return Variant{}, &FeatureError{Group: g.name, Options: g.opts, Err: ErrConflictingOptions}
		}
	}
	return v, nil
}
