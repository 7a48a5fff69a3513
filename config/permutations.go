// Copyright 2023 the Vello Authors
// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package config

import (
	"bytes"
	"fmt"
	"strings"
)

// Permutation is one named set of defines for a shader source.
type Permutation struct {
	Name    string
	Defines []string
}

// Variant resolves the permutation's defines.
func (p Permutation) Variant() (Variant, error) {
	v, err := Resolve(p.Defines)
	if err != nil {
		return Variant{}, fmt.Errorf("permutation %q: %w", p.Name, err)
	}
	return v, nil
}

// ParsePermutations parses a permutations file. The file lists shader
// names, each followed by lines of the form
//
//	+ name: DEFINE DEFINE ...
//
// Empty lines and lines starting with '#' are ignored.
func ParsePermutations(source []byte) (map[string][]Permutation, error) {
	nl := []byte("\n")
	colon := []byte(":")
	out := make(map[string][]Permutation)
	var currentSource []byte
	lineNo := 0
	for len(source) > 0 {
		lineNo++
		var line []byte
		line, source, _ = bytes.Cut(source, nl)
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if line[0] == '+' {
			line = line[1:]
			if len(currentSource) == 0 {
				return nil, fmt.Errorf("line %d: permutation without shader", lineNo)
			}
			nameBytes, definesBytes, _ := bytes.Cut(line, colon)
			name := string(bytes.TrimSpace(nameBytes))
			if name == "" {
				return nil, fmt.Errorf("line %d: permutation without name", lineNo)
			}
			defines := strings.Fields(string(definesBytes))
			out[string(currentSource)] = append(out[string(currentSource)], Permutation{name, defines})
		} else {
			currentSource = bytes.TrimSpace(line)
		}
	}
	return out, nil
}
