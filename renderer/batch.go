package renderer

import (
	"errors"
	"fmt"

	"honnef.co/go/safeish"
	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/internal/logging"
)

var (
	ErrMissingBinding = errors.New("missing binding")
	ErrVertexCount    = errors.New("vertex count is not a multiple of 4")
	ErrLayoutMismatch = errors.New("vertex layout doesn't match pipeline")
)

// DrawBatch is one draw call: a single variant's pipeline, its shared
// uniforms and resources, and the vertices of all tiles drawn with them.
type DrawBatch struct {
	Pipeline *Pipeline
	Tilemap  TilemapUniform
	View     ViewUniform
	// Required by textured and atlas shading.
	Texture *gfx.Texture
	Sampler gfx.Sampler
	// Required by atlas shading.
	Atlas    *gfx.AtlasRect
	Vertices *encoding.Encoding
}

func (b *DrawBatch) validate() error {
	p := b.Pipeline
	if p == nil {
		return fmt.Errorf("%w: pipeline", ErrMissingBinding)
	}
	if b.Vertices == nil {
		return fmt.Errorf("%w: vertices", ErrMissingBinding)
	}
	if b.Vertices.Layout.Stride != p.Layout.Stride ||
		b.Vertices.Layout.HasSize != p.Layout.HasSize ||
		b.Vertices.Layout.HasUV != p.Layout.HasUV {
		return fmt.Errorf("%s: %w", p.Label, ErrLayoutMismatch)
	}
	if n := b.Vertices.Len(); n%4 != 0 {
		return fmt.Errorf("%s: %w: got %d", p.Label, ErrVertexCount, n)
	}
	if p.Variant.Shading.IsTextured() && b.Texture == nil {
		return fmt.Errorf("%s: %w: color_texture", p.Label, ErrMissingBinding)
	}
	if p.Variant.Shading == config.Atlas && b.Atlas == nil {
		return fmt.Errorf("%s: %w: atlas_rect", p.Label, ErrMissingBinding)
	}
	return nil
}

// RenderBatch records the uploads, the draw and the frees of a batch. A batch
// without vertices records nothing.
func (rec *Recording) RenderBatch(b *DrawBatch) error {
	if err := b.validate(); err != nil {
		return err
	}
	if b.Vertices.IsEmpty() {
		return nil
	}
	p := b.Pipeline
	logging.Logger().Debug("recording tilemap batch",
		"pipeline", p.Label,
		"vertices", b.Vertices.Len())

	tilemapBuf := rec.UploadUniform("tilemap", safeish.AsBytes(&b.Tilemap))
	viewBuf := rec.UploadUniform("view", safeish.AsBytes(&b.View))
	bindings := []Binding{
		{BindingTilemap, tilemapBuf.Resource()},
		{BindingView, viewBuf.Resource()},
	}
	var resources []ResourceProxy
	resources = append(resources, tilemapBuf.Resource(), viewBuf.Resource())

	if p.Variant.Shading.IsTextured() {
		tex := b.Texture
		format := Rgba8
		if tex.SRGB {
			format = Rgba8Srgb
		}
		img := rec.UploadImage(uint32(tex.Width), uint32(tex.Height), format, tex.Pix)
		sampler := NewSamplerProxy(b.Sampler)
		bindings = append(bindings,
			Binding{BindingTexture, img.Resource()},
			Binding{BindingSampler, sampler.Resource()})
		resources = append(resources, img.Resource(), sampler.Resource())
	}
	if p.Variant.Shading == config.Atlas {
		atlasBuf := rec.UploadUniform("atlas_rect", safeish.AsBytes(b.Atlas))
		bindings = append(bindings, Binding{BindingAtlasRect, atlasBuf.Resource()})
		resources = append(resources, atlasBuf.Resource())
	}

	vertexBuf := rec.UploadVertices("vertices", b.Vertices.Data)
	resources = append(resources, vertexBuf.Resource())
	rec.Draw(p, vertexBuf, uint32(b.Vertices.Len()), bindings)

	for _, r := range resources {
		rec.FreeResource(r)
	}
	return nil
}
