package main

import (
	"errors"
	"image"
	stdcolor "image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"honnef.co/go/tiles/config"
)

func TestRenderPureColor(t *testing.T) {
	const src = `
width: 4
height: 4
view: {min: [0, 0], max: [4, 4]}
tilemap:
  shape: SQUARE
  tile_size: [2, 2]
layers:
  - features: [UNIFORM_SIZE, PURE_COLOR]
    tiles:
      - {index: [0, 0], color: [1, 0, 0, 1]}
      - {index: [1, 1]}
`
	sf, err := decodeScene(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	dst, err := render(sf, t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	red := stdcolor.NRGBA{255, 0, 0, 255}
	white := stdcolor.NRGBA{255, 255, 255, 255}
	for y := range 4 {
		for x := range 4 {
			var want stdcolor.NRGBA
			switch {
			case x < 2 && y >= 2:
				want = red
			case x >= 2 && y < 2:
				want = white
			}
			if got := dst.NRGBAAt(x, y); got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderAtlas(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, stdcolor.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, stdcolor.NRGBA{0, 0, 255, 255})
	f, err := os.Create(filepath.Join(dir, "atlas.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	const src = `
width: 2
height: 1
view: {min: [0, 0], max: [2, 1]}
tilemap:
  shape: SQUARE
  tile_size: [1, 1]
  texture: {path: atlas.png, tile_size: [1, 1], linear: true}
layers:
  - features: [PER_TILE_SIZE, ATLAS]
    tiles:
      - {index: [0, 0], texture_index: 1}
      - {index: [1, 0], texture_index: 0, flip: [horizontal, vertical]}
`
	sf, err := decodeScene(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	dst, err := render(sf, dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := dst.NRGBAAt(0, 0), (stdcolor.NRGBA{0, 0, 255, 255}); got != want {
		t.Errorf("left pixel = %v, want %v", got, want)
	}
	if got, want := dst.NRGBAAt(1, 0), (stdcolor.NRGBA{255, 0, 0, 255}); got != want {
		t.Errorf("right pixel = %v, want %v", got, want)
	}
}

func TestRenderCamera(t *testing.T) {
	tests := []struct {
		name   string
		camera string
		// Pixels covered by the tile at index (1, 0), which spans
		// [2, 4] x [0, 1] in world space.
		want [4]bool
	}{
		{"none", ``, [4]bool{false, false, true, true}},
		{"translate", `{translate: [-2, 0]}`, [4]bool{true, true, false, false}},
		{"scale", `{translate: [-2, 0], scale: [2, 1]}`, [4]bool{true, true, true, true}},
		// Half a turn about the origin after moving the tile to [-2, 0] x [-1, 0].
		{"rotate", `{translate: [-4, -1], rotate: 180}`, [4]bool{true, true, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `
width: 4
height: 1
view: {min: [0, 0], max: [4, 1]`
			if tt.camera != "" {
				src += `, camera: ` + tt.camera
			}
			src += `}
tilemap: {shape: SQUARE, tile_size: [2, 1]}
layers:
  - features: [UNIFORM_SIZE, PURE_COLOR]
    tiles:
      - {index: [1, 0], color: [1, 0, 0, 1]}
`
			sf, err := decodeScene(strings.NewReader(src))
			if err != nil {
				t.Fatal(err)
			}
			dst, err := render(sf, t.TempDir(), true)
			if err != nil {
				t.Fatal(err)
			}
			for x, covered := range tt.want {
				got := dst.NRGBAAt(x, 0)
				if covered != (got.A != 0) {
					t.Errorf("pixel %d = %v, covered = %t", x, got, covered)
				}
			}
		})
	}
}

func TestSceneErrors(t *testing.T) {
	const header = `
width: 2
height: 2
view: {min: [0, 0], max: [2, 2]}
`
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			"conflicting options",
			header + `
tilemap: {shape: SQUARE, tile_size: [1, 1]}
layers:
  - features: [UNIFORM_SIZE, PER_TILE_SIZE, PURE_COLOR]
`,
			config.ErrConflictingOptions,
		},
		{
			"missing option",
			header + `
tilemap: {shape: ISO_DIAMOND, tile_size: [1, 1]}
layers:
  - features: [PURE_COLOR]
`,
			config.ErrMissingOption,
		},
		{
			"unknown shape",
			header + `
tilemap: {shape: HEXAGON, tile_size: [1, 1]}
`,
			config.ErrUnknownFeature,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf, err := decodeScene(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			_, err = sf.build(t.TempDir())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := decodeScene(strings.NewReader(header + "colour: red\n")); err == nil {
		t.Error("unknown field was accepted")
	}
	if _, err := decodeScene(strings.NewReader("width: 2\nheight: 2\n")); err == nil {
		t.Error("empty view was accepted")
	}
}
