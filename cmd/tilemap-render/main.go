// Command tilemap-render renders a tilemap scene described in YAML to a PNG,
// using the CPU engine.
//
// A scene looks like this:
//
//	width: 256
//	height: 128
//	view:
//	  min: [0, 0]
//	  max: [64, 32]
//	  camera: {translate: [-16, 0], scale: [2, 2]}
//	tilemap:
//	  shape: SQUARE
//	  tile_size: [16, 16]
//	  texture: {path: tiles.png, tile_size: [16, 16]}
//	layers:
//	  - features: [UNIFORM_SIZE, ATLAS]
//	    tiles:
//	      - {index: [0, 0], texture_index: 3}
//	      - {index: [1, 0], texture_index: 3, flip: [horizontal]}
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"honnef.co/go/tiles"
	"honnef.co/go/tiles/engine/cpu_engine"
	"honnef.co/go/tiles/renderer"
)

func main() {
	var (
		in      string
		out     string
		linear  bool
		verbose bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-linear] -out <file> <scene.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&out, "out", "out.png", "Path to output `file`")
	flag.BoolVar(&linear, "linear", false, "Store linear colors instead of sRGB encoding them")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.Parse()

	if len(flag.Args()) != 1 {
		flag.Usage()
		os.Exit(2)
	}
	in = flag.Arg(0)

	if verbose {
		tiles.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	f, err := os.Open(in)
	if err != nil {
		dief("Couldn't open scene: %s", err)
	}
	sf, err := decodeScene(f)
	f.Close()
	if err != nil {
		dief("%s: %s", in, err)
	}

	dst, err := render(sf, filepath.Dir(in), !linear)
	if err != nil {
		dief("%s: %s", in, err)
	}

	w, err := os.Create(out)
	if err != nil {
		dief("Couldn't create output: %s", err)
	}
	if err := png.Encode(w, dst); err != nil {
		dief("Couldn't encode PNG: %s", err)
	}
	if err := w.Close(); err != nil {
		dief("Couldn't write output: %s", err)
	}
}

func render(sf *sceneFile, dir string, srgb bool) (*image.NRGBA, error) {
	s, err := sf.build(dir)
	if err != nil {
		return nil, err
	}
	var ts tiles.Scene
	if err := s.draw(&ts); err != nil {
		return nil, err
	}
	var rec renderer.Recording
	if err := ts.Record(&rec); err != nil {
		return nil, err
	}

	eng := cpu_engine.New()
	eng.SRGBTarget = srgb
	dst := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	if err := eng.RunRecording(&rec, dst); err != nil {
		return nil, err
	}
	return dst, nil
}
