package cpu

import (
	"fmt"

	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/renderer"
)

// Program is the pair of shader stages of one variant.
type Program struct {
	Variant  config.Variant
	Layout   *encoding.Layout
	Vertex   VertexFunc
	Fragment FragmentFunc
}

// ProgramFor picks the stage implementations for v. Nothing in the returned
// functions depends on v at run time.
func ProgramFor(v config.Variant) (*Program, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	var vertex VertexFunc
	switch v.Shape {
	case config.Square:
		vertex = vertexForShape[Square](v)
	case config.IsometricDiamond:
		vertex = vertexForShape[IsometricDiamond](v)
	}

	var fragment FragmentFunc
	switch v.Shading {
	case config.PureColor:
		fragment = PureColorFragment
	case config.Textured:
		fragment = TexturedFragment
	case config.Atlas:
		fragment = AtlasFragment
	}

	return &Program{
		Variant:  v,
		Layout:   encoding.NewLayout(v),
		Vertex:   vertex,
		Fragment: fragment,
	}, nil
}

func vertexForShape[O MeshOrigin](v config.Variant) VertexFunc {
	switch v.Sizing {
	case config.UniformSize:
		return vertexForSize[O, UniformSize](v)
	case config.PerTileSize:
		return vertexForSize[O, PerTileSize](v)
	default:
		panic(fmt.Sprintf("unhandled sizing %s", v.Sizing))
	}
}

func vertexForSize[O MeshOrigin, S SizeSource](v config.Variant) VertexFunc {
	switch v.Shading {
	case config.PureColor:
		return Vertex[O, S, NoTexCoord]
	case config.Textured:
		return Vertex[O, S, TexelTexCoord]
	case config.Atlas:
		return Vertex[O, S, AtlasTexCoord]
	default:
		panic(fmt.Sprintf("unhandled shading %s", v.Shading))
	}
}

// RunVertices runs the vertex stage over n vertices. Resources are indexed by
// binding slot; the tilemap and view slots must hold CPUBuffers.
func (p *Program) RunVertices(n uint32, vertices CPUBuffer, resources []CPUBinding) []VertexOutput {
	tm := fromBytes[renderer.TilemapUniform](resources[renderer.BindingTilemap].(CPUBuffer))
	view := fromBytes[renderer.ViewUniform](resources[renderer.BindingView].(CPUBuffer))
	stride := p.Layout.Stride
	if uint64(n)*uint64(stride) > uint64(len(vertices)) {
		panic(fmt.Sprintf("vertex buffer of size %d cannot hold %d vertices", len(vertices), n))
	}

	out := make([]VertexOutput, n)
	for i := range n {
		in := p.Layout.Decode(vertices[i*stride:])
		out[i] = p.Vertex(&in, tm, view)
	}
	return out
}

// FragmentBindings collects the fragment stage's resources.
func (p *Program) FragmentBindings(resources []CPUBinding) *FragmentBindings {
	b := &FragmentBindings{Atlas: gfx.FullRect}
	if !p.Variant.Shading.IsTextured() {
		return b
	}
	b.Texture = resources[renderer.BindingTexture].(CPUTexture).Texture
	b.Sampler = gfx.Sampler(resources[renderer.BindingSampler].(CPUSampler))
	if p.Variant.Shading == config.Atlas {
		b.Atlas = *fromBytes[gfx.AtlasRect](resources[renderer.BindingAtlasRect].(CPUBuffer))
	}
	return b
}
