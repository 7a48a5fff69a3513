package gfx

import (
	"image"
	stdcolor "image/color"
	"testing"

	"golang.org/x/image/math/f32"
	"honnef.co/go/color"
	"honnef.co/go/tiles/jmath"
)

const tolerance = 1e-4

func near(a, b float32) bool {
	return jmath.Abs32(a-b) <= tolerance
}

func near2(a, b f32.Vec2) bool {
	return near(a[0], b[0]) && near(a[1], b[1])
}

func near4(a, b f32.Vec4) bool {
	return near(a[0], b[0]) && near(a[1], b[1]) && near(a[2], b[2]) && near(a[3], b[3])
}

func TestGammaExpand(t *testing.T) {
	tests := []struct {
		in, want f32.Vec4
	}{
		{f32.Vec4{0, 0, 0, 0}, f32.Vec4{0, 0, 0, 0}},
		{f32.Vec4{1, 1, 1, 1}, f32.Vec4{1, 1, 1, 1}},
		{f32.Vec4{0.5, 0.5, 0.5, 0.5}, f32.Vec4{0.2176, 0.2176, 0.2176, 0.2176}},
	}
	for _, tt := range tests {
		got := GammaExpand(tt.in)
		if !near4(got, tt.want) {
			t.Errorf("GammaExpand(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for i := range 256 {
		lin := srgbToLinear[i]
		if i > 0 && lin <= srgbToLinear[i-1] {
			t.Fatalf("srgbToLinear not increasing at %d", i)
		}
		got := EncodeSRGB(f32.Vec4{lin, lin, lin, 0.5})
		want := float32(i) / 255
		if !near(got[0], want) || got[3] != 0.5 {
			t.Errorf("EncodeSRGB(decode(%d)) = %v, want %v", i, got, want)
		}
	}
	if srgbToLinear[0] != 0 || !near(srgbToLinear[255], 1) {
		t.Errorf("endpoints = %v, %v", srgbToLinear[0], srgbToLinear[255])
	}
}

func TestFromColor(t *testing.T) {
	tests := []struct {
		c    color.Color
		want f32.Vec4
	}{
		{color.Make(color.SRGB, 1, 0.5, 0, 0.25), f32.Vec4{1, 0.5, 0, 0.25}},
		{color.Make(color.SRGB, 0.8, 1, 0.8, 0.5), f32.Vec4{0.8, 1, 0.8, 0.5}},
		// Conversion to sRGB leaves alpha alone.
		{color.Make(color.LinearSRGB, 1, 1, 0, 0.75), f32.Vec4{1, 1, 0, 0.75}},
		{color.Make(color.SRGB, 0, 0, 0, 0), f32.Vec4{}},
	}
	for _, tt := range tests {
		if got := FromColor(&tt.c); !near4(got, tt.want) {
			t.Errorf("FromColor(%v) = %v, want %v", tt.c.Values, got, tt.want)
		}
	}
}

func TestAtlasRectRemap(t *testing.T) {
	r := AtlasRect{Min: f32.Vec2{0.2, 0.3}, Max: f32.Vec2{0.7, 0.8}}
	tests := []struct {
		in, want f32.Vec2
	}{
		{f32.Vec2{0, 0}, f32.Vec2{0.2, 0.3}},
		{f32.Vec2{1, 1}, f32.Vec2{0.7, 0.8}},
		{f32.Vec2{0.5, 0.5}, f32.Vec2{0.45, 0.55}},
	}
	for _, tt := range tests {
		if got := r.Remap(tt.in); !near2(got, tt.want) {
			t.Errorf("Remap(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := FullRect.Remap(f32.Vec2{0.25, 0.75}); got != (f32.Vec2{0.25, 0.75}) {
		t.Errorf("FullRect.Remap = %v", got)
	}
}

func TestTextureDescriptor(t *testing.T) {
	desc := TextureDescriptor{
		Size:     [2]uint32{64, 32},
		TileSize: [2]uint32{16, 16},
	}
	if desc.Columns() != 4 || desc.Rows() != 2 || desc.Count() != 8 {
		t.Fatalf("grid = %dx%d (%d), want 4x2 (8)", desc.Columns(), desc.Rows(), desc.Count())
	}

	tests := []struct {
		index uint32
		want  AtlasRect
	}{
		{0, AtlasRect{Min: f32.Vec2{0, 0}, Max: f32.Vec2{0.25, 0.5}}},
		{3, AtlasRect{Min: f32.Vec2{0.75, 0}, Max: f32.Vec2{1, 0.5}}},
		{5, AtlasRect{Min: f32.Vec2{0.25, 0.5}, Max: f32.Vec2{0.5, 1}}},
	}
	for _, tt := range tests {
		got, err := desc.AtlasRect(tt.index)
		if err != nil {
			t.Fatalf("AtlasRect(%d): %v", tt.index, err)
		}
		if !near2(got.Min, tt.want.Min) || !near2(got.Max, tt.want.Max) {
			t.Errorf("AtlasRect(%d) = %v..%v, want %v..%v", tt.index, got.Min, got.Max, tt.want.Min, tt.want.Max)
		}
	}

	if _, err := desc.AtlasRect(8); err == nil {
		t.Error("AtlasRect(8) succeeded, want error")
	}
	var zero TextureDescriptor
	if _, err := zero.TileOrigin(0); err == nil {
		t.Error("TileOrigin on empty descriptor succeeded, want error")
	}
}

func checkerboard() *Texture {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, stdcolor.NRGBA{255, 0, 0, 255})
	img.Set(1, 0, stdcolor.NRGBA{0, 255, 0, 255})
	img.Set(0, 1, stdcolor.NRGBA{0, 0, 255, 255})
	img.Set(1, 1, stdcolor.NRGBA{255, 255, 255, 255})
	tex := NewTexture(img)
	tex.SRGB = false
	return tex
}

func TestNewTexture(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, stdcolor.NRGBA{0, 255, 0, 255})
	img.Set(0, 1, stdcolor.NRGBA{128, 128, 128, 64})
	tex := NewTexture(img)
	if tex.Width != 2 || tex.Height != 2 || len(tex.Pix) != 16 {
		t.Fatalf("texture is %dx%d with %d bytes", tex.Width, tex.Height, len(tex.Pix))
	}
	if !tex.SRGB {
		t.Error("NewTexture did not mark the texture as sRGB")
	}
	if got := tex.Texel(1, 0); !near4(got, f32.Vec4{0, 1, 0, 1}) {
		t.Errorf("Texel(1, 0) = %v", got)
	}
	// Mid gray decodes to about 0.2159 linear; alpha stays linear.
	if got := tex.Texel(0, 1); !near(got[0], 0.2159) || !near(got[3], 64.0/255) {
		t.Errorf("Texel(0, 1) = %v", got)
	}
	tex.SRGB = false
	if got := tex.Texel(0, 1); !near(got[0], 128.0/255) {
		t.Errorf("raw Texel(0, 1) = %v", got)
	}
	if got := tex.Size(); got != (f32.Vec2{2, 2}) {
		t.Errorf("Size = %v", got)
	}
}

func TestSamplerNearest(t *testing.T) {
	tex := checkerboard()
	tests := []struct {
		name   string
		extend Extend
		uv     f32.Vec2
		want   f32.Vec4
	}{
		{"inside", Pad, f32.Vec2{0.25, 0.25}, f32.Vec4{1, 0, 0, 1}},
		{"bottom right", Pad, f32.Vec2{0.75, 0.75}, f32.Vec4{1, 1, 1, 1}},
		{"pad past edge", Pad, f32.Vec2{1.5, 0.25}, f32.Vec4{0, 1, 0, 1}},
		{"pad upper bound", Pad, f32.Vec2{1, 1}, f32.Vec4{1, 1, 1, 1}},
		{"repeat", Repeat, f32.Vec2{1.25, 0.25}, f32.Vec4{1, 0, 0, 1}},
		{"repeat negative", Repeat, f32.Vec2{-0.25, 0.25}, f32.Vec4{0, 1, 0, 1}},
		{"reflect", Reflect, f32.Vec2{1.25, 0.25}, f32.Vec4{0, 1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Sampler{Filter: Nearest, Extend: tt.extend}
			if got := s.Sample(tex, tt.uv); got != tt.want {
				t.Errorf("Sample(%v) = %v, want %v", tt.uv, got, tt.want)
			}
		})
	}
}

func TestSamplerLinear(t *testing.T) {
	tex := checkerboard()
	s := Sampler{Filter: Linear, Extend: Pad}
	// Texel centers sample exactly.
	if got := s.Sample(tex, f32.Vec2{0.25, 0.25}); !near4(got, f32.Vec4{1, 0, 0, 1}) {
		t.Errorf("Sample at texel center = %v", got)
	}
	// The image center averages all four texels.
	want := f32.Vec4{0.5, 0.5, 0.5, 1}
	if got := s.Sample(tex, f32.Vec2{0.5, 0.5}); !near4(got, want) {
		t.Errorf("Sample at center = %v, want %v", got, want)
	}
}

func TestSampleNilTexture(t *testing.T) {
	var s Sampler
	if got := s.Sample(nil, f32.Vec2{0.5, 0.5}); got != (f32.Vec4{}) {
		t.Errorf("Sample(nil) = %v, want zero", got)
	}
}

func TestSrcOver(t *testing.T) {
	white := f32.Vec4{1, 1, 1, 1}
	tests := []struct {
		src, dst, want f32.Vec4
	}{
		{f32.Vec4{1, 0, 0, 1}, white, f32.Vec4{1, 0, 0, 1}},
		{f32.Vec4{0, 0, 0, 0}, white, white},
		{f32.Vec4{1, 0, 0, 0.5}, white, f32.Vec4{1, 0.5, 0.5, 1}},
		{f32.Vec4{0, 0, 1, 0.5}, f32.Vec4{}, f32.Vec4{0, 0, 0.5, 0.5}},
	}
	for _, tt := range tests {
		if got := SrcOver(tt.src, tt.dst); !near4(got, tt.want) {
			t.Errorf("SrcOver(%v, %v) = %v, want %v", tt.src, tt.dst, got, tt.want)
		}
	}
}
