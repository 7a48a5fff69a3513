// Copyright 2023 the Vello Authors
// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command tilemap-shaders writes the preprocessed WGSL of every tilemap
// variant listed in a permutations file, and optionally its SPIR-V.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"honnef.co/go/tiles"
	"honnef.co/go/tiles/shaders"
)

func main() {
	var (
		in      string
		out     string
		spirv   bool
		verbose bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-spirv] [-in <dir>] -out <dir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&in, "in", "", "Path to `directory` with the shaders and permutations (default: built-in shaders)")
	flag.StringVar(&out, "out", "./out", "Path to output `directory`")
	flag.BoolVar(&spirv, "spirv", false, "Also compile each variant to SPIR-V")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.Parse()

	if len(flag.Args()) != 0 {
		flag.Usage()
		os.Exit(2)
	}

	if verbose {
		tiles.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	var fsys fs.FS
	if in == "" {
		fsys = shaders.FS()
	} else {
		fsys = os.DirFS(in)
	}

	perms, err := shaders.LoadPermutations(fsys)
	if err != nil {
		dief("Invalid permutations: %s", err)
	}
	if len(perms) == 0 {
		dief("No permutations for shader %q", shaders.ShaderName)
	}

	if err := os.MkdirAll(out, 0777); err != nil {
		dief("Couldn't create output directory: %s", err)
	}

	for _, perm := range perms {
		// LoadPermutations has already validated every permutation.
		v, _ := perm.Variant()
		tiles.Logger().Info("compiling permutation", "name", perm.Name, "defines", perm.Defines)
		src, err := shaders.SourceFrom(fsys, v)
		if err != nil {
			dief("Couldn't preprocess source: %s", err)
		}
		if err := os.WriteFile(filepath.Join(out, perm.Name+".wgsl"), src, 0666); err != nil {
			dief("Couldn't write shader: %s", err)
		}

		if !spirv {
			continue
		}
		b, err := shaders.CompileWGSL(src)
		if err != nil {
			dief("Couldn't compile %s: %s", perm.Name, err)
		}
		if err := os.WriteFile(filepath.Join(out, perm.Name+".spv"), b, 0666); err != nil {
			dief("Couldn't write SPIR-V: %s", err)
		}
	}
}
