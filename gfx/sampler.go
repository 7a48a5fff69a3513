package gfx

import (
	"golang.org/x/image/math/f32"
	"honnef.co/go/tiles/jmath"
)

// Extend is a sampler's addressing mode for coordinates outside [0, 1].
type Extend int

const (
	Pad Extend = iota
	Repeat
	Reflect
)

type Filter int

const (
	Nearest Filter = iota
	Linear
)

// Sampler mirrors the sampler bound next to a tilemap texture. On the GPU
// path it is turned into a wgpu sampler; Sample is the CPU equivalent.
type Sampler struct {
	Filter Filter
	Extend Extend
}

// Sample returns the texel color at the normalized coordinate uv. Texels of
// sRGB textures are decoded to linear before filtering.
func (s Sampler) Sample(t *Texture, uv f32.Vec2) f32.Vec4 {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return f32.Vec4{}
	}
	x := uv[0] * float32(t.Width)
	y := uv[1] * float32(t.Height)
	if s.Filter == Nearest {
		return t.Texel(s.wrap(int(jmath.Floor32(x)), t.Width), s.wrap(int(jmath.Floor32(y)), t.Height))
	}

	x -= 0.5
	y -= 0.5
	x0f := jmath.Floor32(x)
	y0f := jmath.Floor32(y)
	fx := x - x0f
	fy := y - y0f
	x0 := int(x0f)
	y0 := int(y0f)
	x1 := s.wrap(x0+1, t.Width)
	y1 := s.wrap(y0+1, t.Height)
	x0 = s.wrap(x0, t.Width)
	y0 = s.wrap(y0, t.Height)

	c00 := t.Texel(x0, y0)
	c10 := t.Texel(x1, y0)
	c01 := t.Texel(x0, y1)
	c11 := t.Texel(x1, y1)
	var out f32.Vec4
	for i := range 4 {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

func (s Sampler) wrap(i, n int) int {
	switch s.Extend {
	case Repeat:
		return ((i % n) + n) % n
	case Reflect:
		period := 2 * n
		m := ((i % period) + period) % period
		if m >= n {
			m = period - 1 - m
		}
		return m
	default:
		return jmath.Clamp(i, 0, n-1)
	}
}
