// Package shaders contains the WGSL sources of the tilemap pipelines and the
// tooling to turn them into per-variant shader modules.
package shaders

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/gogpu/naga"
	"honnef.co/go/safeish"
	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/internal/logging"
)

const (
	ShaderName         = "tilemap"
	VertexEntryPoint   = "tilemap_vertex"
	FragmentEntryPoint = "tilemap_fragment"
	ImportDir          = "shared"
	PermutationsFile   = "permutations"
)

//go:embed wgsl
var embedded embed.FS

// FS returns the embedded shader directory. It contains the main shader,
// the permutations file and the shared imports in ImportDir.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "wgsl")
	if err != nil {
		panic(err)
	}
	return sub
}

// Permutations parses the embedded permutations file and resolves every
// entry to a variant.
func Permutations() ([]config.Permutation, error) {
	return LoadPermutations(FS())
}

// LoadPermutations reads the permutations of the tilemap shader from fsys and
// checks that each of them selects a valid variant.
func LoadPermutations(fsys fs.FS) ([]config.Permutation, error) {
	src, err := fs.ReadFile(fsys, PermutationsFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read permutations: %w", err)
	}
	all, err := config.ParsePermutations(src)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse permutations: %w", err)
	}
	perms := all[ShaderName]
	for _, perm := range perms {
		if _, err := perm.Variant(); err != nil {
			return nil, err
		}
	}
	return perms, nil
}

var sourceCache sync.Map // config.Variant -> []byte

// Source returns the preprocessed WGSL of a variant.
func Source(v config.Variant) ([]byte, error) {
	if src, ok := sourceCache.Load(v); ok {
		return src.([]byte), nil
	}
	src, err := SourceFrom(FS(), v)
	if err != nil {
		return nil, err
	}
	sourceCache.Store(v, src)
	return src, nil
}

// SourceFrom preprocesses the tilemap shader found in fsys for a variant.
func SourceFrom(fsys fs.FS, v config.Variant) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	main, err := fs.ReadFile(fsys, ShaderName+".wgsl")
	if err != nil {
		return nil, fmt.Errorf("couldn't read shader: %w", err)
	}
	logging.Logger().Debug("preprocessing shader", "variant", v.Name())
	p := NewPreprocessor(fsys, ImportDir, v.Defines())
	src, err := p.Preprocess(main, v.Name())
	if err != nil {
		return nil, fmt.Errorf("couldn't preprocess %s: %w", v.Name(), err)
	}
	return src, nil
}

// CompileSPIRV compiles a variant's WGSL to SPIR-V words, in host byte order.
func CompileSPIRV(v config.Variant) ([]uint32, error) {
	src, err := Source(v)
	if err != nil {
		return nil, err
	}
	spirv, err := CompileWGSL(src)
	if err != nil {
		return nil, err
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V of %s has %d bytes, not a whole number of words", v.Name(), len(spirv))
	}
	return safeish.SliceCast[[]uint32](spirv), nil
}

// CompileWGSL compiles preprocessed WGSL to a SPIR-V binary.
func CompileWGSL(src []byte) ([]byte, error) {
	spirv, err := naga.Compile(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	return spirv, nil
}
