// Copyright 2023 the Vello Authors
// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package shaders

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"

	"honnef.co/go/tiles/internal/logging"
)

// Preprocessor implements the small preprocessor used by our WGSL sources.
// It supports #ifdef, #ifndef, #else, #endif and #import. Imports are
// loaded from ImportDir in FS.
type Preprocessor struct {
	FS        fs.FS
	ImportDir string
	Defines   map[string]struct{}

	imports map[string][]byte
}

func NewPreprocessor(fsys fs.FS, importDir string, defines []string) *Preprocessor {
	p := &Preprocessor{
		FS:        fsys,
		ImportDir: importDir,
		Defines:   make(map[string]struct{}, len(defines)),
	}
	for _, d := range defines {
		p.Defines[d] = struct{}{}
	}
	return p
}

func (p *Preprocessor) debug(msg string, args ...any) {
	logging.Logger().Debug(msg, args...)
}

func (p *Preprocessor) getImport(name string) ([]byte, error) {
	p.debug("substituting import", "import", name)
	if src, ok := p.imports[name]; ok {
		return src, nil
	}
	if p.FS == nil {
		return nil, fmt.Errorf("no file system to import %q from", name)
	}
	p.debug("loading import", "import", name)
	src, err := fs.ReadFile(p.FS, path.Join(p.ImportDir, name+".wgsl"))
	if err != nil {
		return nil, err
	}
	if p.imports == nil {
		p.imports = make(map[string][]byte)
	}
	p.imports[name] = src
	return src, nil
}

func (p *Preprocessor) Preprocess(source []byte, name string) ([]byte, error) {
	var out []byte
	nl := []byte("\n")
	space := []byte(" ")
	dirMarker := []byte("#")
	commentMarker := []byte("//")
	type stackItem struct {
		active     bool
		elsePassed bool
	}
	var stack []stackItem
	lineNo := 0
	location := func() string {
		return fmt.Sprintf("%s:%d", name, lineNo)
	}
	errorf := func(f string, v ...any) error {
		v = append(v[:len(v):len(v)], location())
		return fmt.Errorf(f+" (at %s)", v...)
	}
	error := func(f string) error {
		return errorf("%s", f)
	}
	allActive := func() bool {
		for _, item := range stack {
			if !item.active {
				return false
			}
		}
		return true
	}
allLines:
	for len(source) > 0 {
		lineNo++
		var line []byte
		line, source, _ = bytes.Cut(source, nl)
		line = bytes.TrimRight(line, "\r")

		for len(line) > 0 {
			hashIdx := bytes.IndexByte(line, '#')
			commentIdx := bytes.Index(line, commentMarker)

			if hashIdx == -1 || (commentIdx != -1 && commentIdx < hashIdx) {
				// No directives that aren't commented
				break
			}

			end := bytes.IndexByte(line[hashIdx+1:], ' ')
			if end == -1 {
				end = len(line)
			} else {
				end += hashIdx + 1
			}

			directive := string(line[hashIdx+1 : end])
			atStart := bytes.HasPrefix(bytes.TrimSpace(line), dirMarker)
			arg := bytes.TrimSpace(line[end:])

			switch directive {
			case "ifdef", "ifndef", "else", "endif":
				if !atStart {
					return nil, errorf(
						"%q directives must be the first non-whitespace item on their line",
						directive)
				}
			}

			switch directive {
			case "ifdef", "ifndef":
				if len(arg) == 0 {
					return nil, errorf("#%s needs an argument", directive)
				}
				_, exists := p.Defines[string(arg)]
				active := (directive == "ifdef") == exists
				stack = append(stack, stackItem{active: active})
				p.debug("entering branch", "directive", directive, "define", string(arg), "active", active)
				continue allLines

			case "else":
				if len(stack) == 0 {
					return nil, error("#else without #ifdef or #ifndef")
				}
				item := &stack[len(stack)-1]
				if item.elsePassed {
					return nil, error("second else for same ifdef/ifndef")
				}
				item.elsePassed = true
				item.active = !item.active
				if len(arg) != 0 {
					return nil, error("#else directive doesn't accept arguments")
				}
				continue allLines

			case "endif":
				if len(stack) == 0 {
					return nil, error("mismatched endif")
				}
				stack = stack[:len(stack)-1]
				if len(arg) != 0 && !bytes.HasPrefix(arg, commentMarker) {
					return nil, error("#endif directive doesn't accept arguments")
				}
				continue allLines

			case "import":
				if !allActive() {
					continue allLines
				}
				out = append(out, line[:hashIdx]...)
				if len(arg) == 0 {
					return nil, error("#import needs an argument")
				}
				var importName []byte
				importName, line, _ = bytes.Cut(arg, space)
				importSrc, err := p.getImport(string(importName))
				if err != nil {
					return nil, errorf("couldn't import %q: %w", importName, err)
				}
				imported, err := p.Preprocess(importSrc, "#import "+string(importName))
				if err != nil {
					return nil, err
				}
				out = append(out, imported...)

			default:
				return nil, errorf("unknown preprocessor directive %q", directive)
			}
		}

		if allActive() {
			out = append(out, line...)
			out = append(out, '\n')
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("%s: %d unterminated #ifdef/#ifndef", name, len(stack))
	}
	return out, nil
}
