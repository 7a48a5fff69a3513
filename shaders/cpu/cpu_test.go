package cpu

import (
	"errors"
	"image"
	stdcolor "image/color"
	"testing"

	"golang.org/x/image/math/f32"
	"honnef.co/go/safeish"
	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/jmath"
	"honnef.co/go/tiles/renderer"
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

func TestCornerOffset(t *testing.T) {
	size := f32.Vec2{3, 5}
	want := []f32.Vec2{{0, 0}, {0, 5}, {3, 5}, {3, 0}}
	for i, w := range want {
		if got := CornerOffset(uint32(i), size); got != w {
			t.Errorf("CornerOffset(%d) = %v, want %v", i, got, w)
		}
	}
	for i := uint32(4); i < 12; i++ {
		if got := CornerOffset(i, size); got != want[i%4] {
			t.Errorf("CornerOffset(%d) = %v, want %v", i, got, want[i%4])
		}
	}
}

func TestPivotOffset(t *testing.T) {
	size := f32.Vec2{3, 5}
	for i := range uint32(4) {
		if got, want := PivotOffset(i, size, f32.Vec2{}), CornerOffset(i, size); got != want {
			t.Errorf("pivot (0, 0), corner %d: got %v, want %v", i, got, want)
		}
	}
	if got := PivotOffset(0, size, f32.Vec2{1, 1}); got != (f32.Vec2{-3, -5}) {
		t.Errorf("pivot (1, 1), corner 0: got %v, want (-3, -5)", got)
	}
	if got := PivotOffset(2, size, f32.Vec2{0.5, 0.5}); got != (f32.Vec2{1.5, 2.5}) {
		t.Errorf("pivot (0.5, 0.5), corner 2: got %v, want (1.5, 2.5)", got)
	}
}

func identityView() *renderer.ViewUniform {
	view := renderer.NewViewUniform(jmath.Identity4)
	return &view
}

func TestVertexPosition(t *testing.T) {
	tm := &renderer.TilemapUniform{
		TileRenderSize:  f32.Vec2{16, 8},
		TileRenderScale: f32.Vec2{2, 2},
		Pivot:           f32.Vec2{0.5, 0.5},
		Translation:     f32.Vec2{100, -50},
	}
	tests := []struct {
		name string
		fn   VertexFunc
		in   encoding.TileVertex
		want f32.Vec2
	}{
		// origin (3*32, 2*16), corner (0, 0) minus half a tile
		{"square", Vertex[Square, UniformSize, NoTexCoord], encoding.TileVertex{Index: [2]int32{3, 2}}, f32.Vec2{100 + 96 - 16, -50 + 32 - 8}},
		// corner 2 of a per-tile sized quad
		{"square per tile", Vertex[Square, PerTileSize, NoTexCoord], encoding.TileVertex{Index: [2]int32{1, 0}, Corner: 2, Size: f32.Vec2{4, 4}}, f32.Vec2{100 + 32 + 8 - 4, -50 + 8 - 4}},
		// origin ((1-0-1)/2*32, (1+0)/2*16)
		{"isometric", Vertex[IsometricDiamond, UniformSize, NoTexCoord], encoding.TileVertex{Index: [2]int32{1, 0}}, f32.Vec2{100 + 0 - 16, -50 + 8 - 8}},
		{"isometric corner wraps", Vertex[IsometricDiamond, UniformSize, NoTexCoord], encoding.TileVertex{Index: [2]int32{0, 0}, Corner: 6}, f32.Vec2{100 - 16 + 32 - 16, -50 + 0 + 16 - 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.fn(&tt.in, tm, identityView())
			want := f32.Vec4{tt.want[0], tt.want[1], 0, 1}
			if !near4(out.Position, want) {
				t.Errorf("position = %v, want %v", out.Position, want)
			}
		})
	}
}

func TestVertexViewProj(t *testing.T) {
	tm := &renderer.TilemapUniform{TileRenderSize: f32.Vec2{2, 2}, TileRenderScale: f32.Vec2{1, 1}}
	view := renderer.NewViewUniform(jmath.Ortho(0, 4, 0, 4, -1, 1))
	in := encoding.TileVertex{Index: [2]int32{1, 1}, Corner: 2}
	out := Vertex[Square, UniformSize, NoTexCoord](&in, tm, &view)
	// (4, 4) is the top right corner of the view volume.
	if !near4(out.Position, f32.Vec4{1, 1, 0.5, 1}) {
		t.Errorf("position = %v, want (1, 1, 0.5, 1)", out.Position)
	}
}

func TestVertexGammaExpansion(t *testing.T) {
	tm := &renderer.TilemapUniform{TileRenderScale: f32.Vec2{1, 1}}
	tests := []struct {
		in, want f32.Vec4
	}{
		{f32.Vec4{0, 0, 0, 0}, f32.Vec4{0, 0, 0, 0}},
		{f32.Vec4{1, 1, 1, 1}, f32.Vec4{1, 1, 1, 1}},
		{f32.Vec4{0.5, 0.5, 0.5, 0.5}, f32.Vec4{0.2176, 0.2176, 0.2176, 0.2176}},
	}
	for _, tt := range tests {
		in := encoding.TileVertex{Color: tt.in}
		out := Vertex[Square, UniformSize, NoTexCoord](&in, tm, identityView())
		if !near4(out.Color, tt.want) {
			t.Errorf("color %v expanded to %v, want %v", tt.in, out.Color, tt.want)
		}
	}
}

func TestTexelTexCoord(t *testing.T) {
	tm := &renderer.TilemapUniform{TextureSize: f32.Vec2{64, 32}}
	tests := []struct {
		uv, want f32.Vec2
	}{
		{f32.Vec2{0, 0}, f32.Vec2{0, 0}},
		{f32.Vec2{16, 16}, f32.Vec2{16.0 / 64, 16.0 / 32}},
		{f32.Vec2{64, 32}, f32.Vec2{1, 1}},
	}
	for _, tt := range tests {
		in := encoding.TileVertex{UV: tt.uv}
		if got := (TexelTexCoord{}).UV(&in, tm); got != tt.want {
			t.Errorf("UV(%v) = %v, want %v", tt.uv, got, tt.want)
		}
	}
	if got := (NoTexCoord{}).UV(&encoding.TileVertex{UV: f32.Vec2{1, 1}}, tm); got != (f32.Vec2{}) {
		t.Errorf("NoTexCoord produced %v", got)
	}
}

func TestAtlasTexCoordFlip(t *testing.T) {
	tm := &renderer.TilemapUniform{TextureSize: f32.Vec2{16, 16}}
	tests := []struct {
		flip encoding.Flip
		want f32.Vec2
	}{
		{0, f32.Vec2{0.25, 0.75}},
		{encoding.FlipHorizontal, f32.Vec2{0.75, 0.75}},
		{encoding.FlipVertical, f32.Vec2{0.25, 0.25}},
		{encoding.FlipHorizontal | encoding.FlipVertical, f32.Vec2{0.75, 0.25}},
	}
	for _, tt := range tests {
		in := encoding.TileVertex{UV: f32.Vec2{4, 12}, Flip: tt.flip}
		if got := (AtlasTexCoord{}).UV(&in, tm); !near2(got, tt.want) {
			t.Errorf("flip %s: UV = %v, want %v", tt.flip, got, tt.want)
		}
	}
}

func whiteTexture() *gfx.Texture {
	return &gfx.Texture{Width: 1, Height: 1, Pix: []uint8{255, 255, 255, 255}}
}

func TestPureColorFragment(t *testing.T) {
	in := VertexOutput{Color: f32.Vec4{0.1, 0.2, 0.3, 0.4}, UV: f32.Vec2{0.5, 0.5}}
	bindings := []*FragmentBindings{
		nil,
		{},
		{Texture: whiteTexture(), Atlas: gfx.AtlasRect{Min: f32.Vec2{0.2, 0.2}, Max: f32.Vec2{0.4, 0.4}}},
	}
	for _, b := range bindings {
		if got := PureColorFragment(&in, b); got != in.Color {
			t.Errorf("PureColorFragment = %v, want %v", got, in.Color)
		}
	}
}

func TestTexturedFragment(t *testing.T) {
	in := VertexOutput{Color: f32.Vec4{0.1, 0.2, 0.3, 0.4}, UV: f32.Vec2{0.5, 0.5}}
	b := &FragmentBindings{Texture: whiteTexture()}
	if got := TexturedFragment(&in, b); got != in.Color {
		t.Errorf("white texture: got %v, want %v", got, in.Color)
	}

	b.Texture = &gfx.Texture{Width: 1, Height: 1, Pix: []uint8{255, 0, 255, 255}}
	want := f32.Vec4{0.1, 0, 0.3, 0.4}
	if got := TexturedFragment(&in, b); !near4(got, want) {
		t.Errorf("magenta texture: got %v, want %v", got, want)
	}
}

func TestAtlasFragment(t *testing.T) {
	// Left half red, right half blue.
	tex := &gfx.Texture{Width: 2, Height: 1, Pix: []uint8{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}}
	in := VertexOutput{Color: f32.Vec4{1, 1, 1, 1}, UV: f32.Vec2{0.5, 0.5}}
	tests := []struct {
		rect gfx.AtlasRect
		want f32.Vec4
	}{
		{gfx.AtlasRect{Min: f32.Vec2{0, 0}, Max: f32.Vec2{0.5, 1}}, f32.Vec4{1, 0, 0, 1}},
		{gfx.AtlasRect{Min: f32.Vec2{0.5, 0}, Max: f32.Vec2{1, 1}}, f32.Vec4{0, 0, 1, 1}},
	}
	for _, tt := range tests {
		b := &FragmentBindings{Texture: tex, Atlas: tt.rect}
		if got := AtlasFragment(&in, b); got != tt.want {
			t.Errorf("rect %v..%v: got %v, want %v", tt.rect.Min, tt.rect.Max, got, tt.want)
		}
	}
}

func TestProgramFor(t *testing.T) {
	for v := range config.Variants() {
		p, err := ProgramFor(v)
		if err != nil {
			t.Fatalf("%s: %v", v, err)
		}
		if p.Vertex == nil || p.Fragment == nil {
			t.Errorf("%s: missing stage", v)
		}
	}
	_, err := ProgramFor(config.Variant{Shape: config.Square, Shading: config.Atlas})
	if !errors.Is(err, config.ErrMissingOption) {
		t.Errorf("got error %v, want %v", err, config.ErrMissingOption)
	}
}

func TestRunVertices(t *testing.T) {
	v := config.Variant{Shape: config.Square, Sizing: config.PerTileSize, Shading: config.Textured}
	p, err := ProgramFor(v)
	if err != nil {
		t.Fatal(err)
	}
	tm := renderer.TilemapUniform{
		TileRenderSize:  f32.Vec2{1, 1},
		TileRenderScale: f32.Vec2{1, 1},
		TextureSize:     f32.Vec2{8, 8},
	}
	view := renderer.NewViewUniform(jmath.Identity4)
	enc := encoding.New(v)
	for corner := range uint32(4) {
		enc.Encode(&encoding.TileVertex{
			Index:  [2]int32{2, 3},
			Corner: corner,
			Color:  f32.Vec4{1, 1, 1, 1},
			Size:   f32.Vec2{2, 4},
			UV:     f32.Vec2{8, 4},
		})
	}
	resources := []CPUBinding{
		renderer.BindingTilemap: CPUBuffer(safeish.AsBytes(&tm)),
		renderer.BindingView:    CPUBuffer(safeish.AsBytes(&view)),
	}
	outs := p.RunVertices(uint32(enc.Len()), CPUBuffer(enc.Data), resources)
	want := []f32.Vec2{{2, 3}, {2, 7}, {4, 7}, {4, 3}}
	for i, out := range outs {
		if !near4(out.Position, f32.Vec4{want[i][0], want[i][1], 0, 1}) {
			t.Errorf("vertex %d at %v, want %v", i, out.Position, want[i])
		}
		if out.UV != (f32.Vec2{1, 0.5}) {
			t.Errorf("vertex %d uv = %v, want (1, 0.5)", i, out.UV)
		}
	}
}

func TestRasterize(t *testing.T) {
	v := config.Variant{Shape: config.Square, Sizing: config.UniformSize, Shading: config.PureColor}
	p, err := ProgramFor(v)
	if err != nil {
		t.Fatal(err)
	}
	tm := renderer.TilemapUniform{
		TileRenderSize:  f32.Vec2{2, 2},
		TileRenderScale: f32.Vec2{1, 1},
	}
	view := renderer.NewViewUniform(jmath.Ortho(0, 4, 0, 4, -1, 1))
	outs := make([]VertexOutput, 4)
	for corner := range uint32(4) {
		in := encoding.TileVertex{Corner: corner, Color: f32.Vec4{1, 0, 0, 1}}
		outs[corner] = p.Vertex(&in, &tm, &view)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	Rasterize(dst, outs, p.Fragment, &FragmentBindings{}, true)
	for y := range 4 {
		for x := range 4 {
			got := dst.NRGBAAt(x, y)
			// World y grows upwards, image y downwards.
			inside := x < 2 && y >= 2
			if inside && (got.R != 255 || got.G != 0 || got.B != 0 || got.A != 255) {
				t.Errorf("pixel (%d, %d) = %v, want red", x, y, got)
			}
			if !inside && got.A != 0 {
				t.Errorf("pixel (%d, %d) = %v, want transparent", x, y, got)
			}
		}
	}
}

func TestRasterizeSkipsBehindViewer(t *testing.T) {
	outs := make([]VertexOutput, 4)
	for i := range outs {
		outs[i] = VertexOutput{Position: f32.Vec4{0, 0, 0, -1}, Color: f32.Vec4{1, 1, 1, 1}}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	Rasterize(dst, outs, PureColorFragment, nil, false)
	for _, b := range dst.Pix {
		if b != 0 {
			t.Fatal("drew a quad behind the viewer")
		}
	}
}

func TestRasterizeBlends(t *testing.T) {
	v := config.Variant{Shape: config.Square, Sizing: config.UniformSize, Shading: config.PureColor}
	p, err := ProgramFor(v)
	if err != nil {
		t.Fatal(err)
	}
	tm := renderer.TilemapUniform{
		TileRenderSize:  f32.Vec2{2, 2},
		TileRenderScale: f32.Vec2{1, 1},
	}
	view := renderer.NewViewUniform(jmath.Ortho(0, 2, 0, 2, -1, 1))

	for _, alpha := range []float32{0, 0.5, 1} {
		outs := make([]VertexOutput, 4)
		for corner := range uint32(4) {
			in := encoding.TileVertex{Corner: corner, Color: f32.Vec4{1, 0, 0, alpha}}
			outs[corner] = p.Vertex(&in, &tm, &view)
		}
		dst := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		for i := range dst.Pix {
			dst.Pix[i] = 255
		}
		Rasterize(dst, outs, p.Fragment, &FragmentBindings{}, false)

		// Vertex alpha is gamma expanded like the color channels.
		sa := gfx.GammaExpand(f32.Vec4{0, 0, 0, alpha})[3]
		wantGB := (1 - sa) * 255
		for y := range 2 {
			for x := range 2 {
				got := dst.NRGBAAt(x, y)
				if got.R != 255 || got.A != 255 ||
					jmath.Abs32(float32(got.G)-wantGB) > 1 || jmath.Abs32(float32(got.B)-wantGB) > 1 {
					t.Errorf("alpha %v: pixel (%d, %d) = %v, want red over white with G, B ≈ %v", alpha, x, y, got, wantGB)
				}
			}
		}
	}
}

func TestSrcOverSRGBTarget(t *testing.T) {
	// A transparent fragment over an sRGB target must leave it unchanged.
	outs := make([]VertexOutput, 4)
	pos := []f32.Vec4{{-1, -1, 0, 1}, {-1, 1, 0, 1}, {1, 1, 0, 1}, {1, -1, 0, 1}}
	for i := range outs {
		outs[i] = VertexOutput{Position: pos[i], Color: f32.Vec4{0, 0, 0, 0}}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range dst.Pix {
		dst.Pix[i] = []uint8{200, 128, 30, 255}[i%4]
	}
	Rasterize(dst, outs, PureColorFragment, nil, true)
	want := stdcolor.NRGBA{200, 128, 30, 255}
	for y := range 2 {
		for x := range 2 {
			if got := dst.NRGBAAt(x, y); got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}
