package encoding

import (
	"fmt"

	"honnef.co/go/tiles/config"
)

// Shader locations of the vertex attributes.
const (
	LocationIndex = 0
	LocationColor = 1
	LocationSize  = 2
	LocationUV    = 3
)

type Format uint8

const (
	FormatSint32x4 Format = iota + 1
	FormatFloat32x4
	FormatFloat32x2
)

// Size returns the size of one attribute of this format, in bytes.
func (f Format) Size() uint32 {
	switch f {
	case FormatSint32x4, FormatFloat32x4:
		return 16
	case FormatFloat32x2:
		return 8
	default:
		panic(fmt.Sprintf("invalid format %d", f))
	}
}

func (f Format) String() string {
	switch f {
	case FormatSint32x4:
		return "vec4<i32>"
	case FormatFloat32x4:
		return "vec4<f32>"
	case FormatFloat32x2:
		return "vec2<f32>"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

type Attribute struct {
	Name     string
	Location uint32
	Format   Format
	Offset   uint32
}

// Layout describes the interleaved vertex buffer of a variant.
type Layout struct {
	Stride     uint32
	Attributes []Attribute
	HasSize    bool
	HasUV      bool
}

func NewLayout(v config.Variant) *Layout {
	l := &Layout{
		HasSize: v.Sizing == config.PerTileSize,
		HasUV:   v.Shading.IsTextured(),
	}
	l.add("index", LocationIndex, FormatSint32x4)
	l.add("color", LocationColor, FormatFloat32x4)
	if l.HasSize {
		l.add("size", LocationSize, FormatFloat32x2)
	}
	if l.HasUV {
		l.add("uv", LocationUV, FormatFloat32x2)
	}
	return l
}

func (l *Layout) add(name string, loc uint32, f Format) {
	l.Attributes = append(l.Attributes, Attribute{
		Name:     name,
		Location: loc,
		Format:   f,
		Offset:   l.Stride,
	})
	l.Stride += f.Size()
}
