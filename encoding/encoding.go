// Package encoding packs tile vertices into the byte stream bound as the
// vertex buffer of a tilemap draw.
package encoding

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/image/math/f32"
	"honnef.co/go/tiles/config"
)

// Flip mirrors a tile's texture coordinates. It only has an effect on atlas
// variants.
type Flip uint32

const (
	FlipHorizontal Flip = 1 << iota
	FlipVertical
)

func (f Flip) String() string {
	switch f {
	case 0:
		return "none"
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	case FlipHorizontal | FlipVertical:
		return "both"
	default:
		return fmt.Sprintf("Flip(%d)", uint32(f))
	}
}

// TileVertex is one corner of a tile quad. Size is only encoded for per-tile
// sizing and UV only for textured shading; other variants ignore them.
type TileVertex struct {
	Index  [2]int32
	Corner uint32
	Flip   Flip
	// Gamma-space RGBA.
	Color f32.Vec4
	Size  f32.Vec2
	// Texel units.
	UV f32.Vec2
}

type Encoding struct {
	Layout *Layout
	Data   []byte
}

func New(v config.Variant) *Encoding {
	return &Encoding{Layout: NewLayout(v)}
}

func (enc *Encoding) IsEmpty() bool {
	return len(enc.Data) == 0
}

func (enc *Encoding) Reset() {
	enc.Data = enc.Data[:0]
}

// Len returns the number of encoded vertices.
func (enc *Encoding) Len() int {
	return len(enc.Data) / int(enc.Layout.Stride)
}

func (enc *Encoding) Encode(v *TileVertex) {
	enc.Data = enc.Layout.Append(enc.Data, v)
}

// Vertex decodes the i-th vertex.
func (enc *Encoding) Vertex(i int) TileVertex {
	off := i * int(enc.Layout.Stride)
	return enc.Layout.Decode(enc.Data[off : off+int(enc.Layout.Stride)])
}

// Append appends the encoding of v to b.
func (l *Layout) Append(b []byte, v *TileVertex) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Index[0]))
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Index[1]))
	b = binary.LittleEndian.AppendUint32(b, v.Corner)
	b = binary.LittleEndian.AppendUint32(b, uint32(v.Flip))
	for _, c := range v.Color {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(c))
	}
	if l.HasSize {
		b = appendVec2(b, v.Size)
	}
	if l.HasUV {
		b = appendVec2(b, v.UV)
	}
	return b
}

// Decode decodes a single vertex from b, which must hold at least Stride
// bytes.
func (l *Layout) Decode(b []byte) TileVertex {
	_ = b[l.Stride-1]
	var v TileVertex
	v.Index[0] = int32(binary.LittleEndian.Uint32(b[0:]))
	v.Index[1] = int32(binary.LittleEndian.Uint32(b[4:]))
	v.Corner = binary.LittleEndian.Uint32(b[8:])
	v.Flip = Flip(binary.LittleEndian.Uint32(b[12:]))
	for i := range v.Color {
		v.Color[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[16+4*i:]))
	}
	for _, attr := range l.Attributes {
		switch attr.Location {
		case LocationSize:
			v.Size = decodeVec2(b[attr.Offset:])
		case LocationUV:
			v.UV = decodeVec2(b[attr.Offset:])
		}
	}
	return v
}

func appendVec2(b []byte, v f32.Vec2) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v[0]))
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v[1]))
}

func decodeVec2(b []byte) f32.Vec2 {
	return f32.Vec2{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
	}
}
