package wgpu_engine

import (
	"fmt"

	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/encoding"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/renderer"
	"honnef.co/go/wgpu"
)

type RendererOptions struct {
	// The format of the render targets. Colors leave the fragment stage in
	// linear space, so this should be an sRGB format.
	TargetFormat wgpu.TextureFormat
	// Variants to build pipelines for in New. Other variants are built on
	// first use.
	Preload []config.Variant
}

func imageFormatToWGPU(f renderer.ImageFormat) wgpu.TextureFormat {
	switch f {
	case renderer.Rgba8:
		return wgpu.TextureFormatRGBA8Unorm
	case renderer.Rgba8Srgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case renderer.Bgra8:
		return wgpu.TextureFormatBGRA8Unorm
	default:
		panic(fmt.Sprintf("unhandled value %d", f))
	}
}

func vertexFormatToWGPU(f encoding.Format) wgpu.VertexFormat {
	switch f {
	case encoding.FormatSint32x4:
		return wgpu.VertexFormatSint32x4
	case encoding.FormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	case encoding.FormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	default:
		panic(fmt.Sprintf("unhandled value %d", f))
	}
}

func extendToWGPU(e gfx.Extend) wgpu.AddressMode {
	switch e {
	case gfx.Pad:
		return wgpu.AddressModeClampToEdge
	case gfx.Repeat:
		return wgpu.AddressModeRepeat
	case gfx.Reflect:
		return wgpu.AddressModeMirrorRepeat
	default:
		panic(fmt.Sprintf("unhandled value %d", e))
	}
}

func filterToWGPU(f gfx.Filter) wgpu.FilterMode {
	switch f {
	case gfx.Nearest:
		return wgpu.FilterModeNearest
	case gfx.Linear:
		return wgpu.FilterModeLinear
	default:
		panic(fmt.Sprintf("unhandled value %d", f))
	}
}

func stagesToWGPU(s renderer.Stage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&renderer.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&renderer.StageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func bindGroupLayoutEntries(entries []renderer.BindEntry) []wgpu.BindGroupLayoutEntry {
	out := make([]wgpu.BindGroupLayoutEntry, len(entries))
	for i, e := range entries {
		out[i] = wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: stagesToWGPU(e.Stages),
		}
		switch e.Type {
		case renderer.BindTypeUniform:
			out[i].Buffer = &wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			}
		case renderer.BindTypeTexture:
			out[i].Texture = &wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
				Multisampled:  false,
			}
		case renderer.BindTypeSampler:
			out[i].Sampler = &wgpu.SamplerBindingLayout{
				Type: wgpu.SamplerBindingTypeFiltering,
			}
		default:
			panic(fmt.Sprintf("unhandled value %d", e.Type))
		}
	}
	return out
}

func vertexBufferLayout(l *encoding.Layout) wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormatToWGPU(a.Format),
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(l.Stride),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// RenderToTexture records the batches and draws them into texture, which
// must have been created with TargetFormat. If clear is not nil, the texture
// is cleared to it first.
func (eng *Engine) RenderToTexture(
	queue *wgpu.Queue,
	batches []*renderer.DrawBatch,
	texture *wgpu.TextureView,
	clear *wgpu.Color,
) error {
	var rec renderer.Recording
	for _, b := range batches {
		if err := rec.RenderBatch(b); err != nil {
			return err
		}
	}
	return eng.RunRecording(queue, &rec, texture, clear, "render_to_texture")
}

// RenderToSurface is like RenderToTexture, but draws into a surface texture.
func (eng *Engine) RenderToSurface(
	queue *wgpu.Queue,
	batches []*renderer.DrawBatch,
	surface *wgpu.SurfaceTexture,
	clear *wgpu.Color,
) error {
	surfaceView := surface.Texture.CreateView(nil)
	defer surfaceView.Release()
	return eng.RenderToTexture(queue, batches, surfaceView, clear)
}
