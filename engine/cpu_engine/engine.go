// Package cpu_engine executes recordings on the CPU, using the CPU versions
// of the tilemap shaders. It is slow and meant for tests, debugging, and
// environments without a GPU.
package cpu_engine

import (
	"fmt"
	"image"

	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/internal/logging"
	"honnef.co/go/tiles/renderer"
	"honnef.co/go/tiles/shaders/cpu"
)

type Engine struct {
	// SRGBTarget makes the engine encode fragment colors to sRGB before
	// storing them, like a GPU does for sRGB render targets. Without it,
	// the target receives linear values.
	SRGBTarget bool

	programs map[config.Variant]*cpu.Program
}

func New() *Engine {
	return &Engine{
		SRGBTarget: true,
		programs:   make(map[config.Variant]*cpu.Program),
	}
}

func (eng *Engine) program(v config.Variant) (*cpu.Program, error) {
	if p, ok := eng.programs[v]; ok {
		return p, nil
	}
	p, err := cpu.ProgramFor(v)
	if err != nil {
		return nil, err
	}
	if eng.programs == nil {
		eng.programs = make(map[config.Variant]*cpu.Program)
	}
	eng.programs[v] = p
	return p, nil
}

type bindMap struct {
	bufs   map[renderer.ResourceID]cpu.CPUBuffer
	images map[renderer.ResourceID]*gfx.Texture
}

// RunRecording executes the recording, drawing into target.
func (eng *Engine) RunRecording(recording *renderer.Recording, target *image.NRGBA) error {
	logging.Logger().Debug("running recording on CPU", "commands", len(recording.Commands))

	m := bindMap{
		bufs:   make(map[renderer.ResourceID]cpu.CPUBuffer),
		images: make(map[renderer.ResourceID]*gfx.Texture),
	}
	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *renderer.UploadUniform:
			m.bufs[cmd.Buffer.ID] = cmd.Data
		case *renderer.UploadVertices:
			m.bufs[cmd.Buffer.ID] = cmd.Data
		case *renderer.UploadImage:
			tex, err := textureFromUpload(cmd)
			if err != nil {
				return err
			}
			m.images[cmd.Image.ID] = tex
		case *renderer.Draw:
			p, err := eng.program(cmd.Pipeline.Variant)
			if err != nil {
				return err
			}
			vertices, ok := m.bufs[cmd.Vertices.ID]
			if !ok {
				panic(fmt.Sprintf("vertex buffer %q hasn't been uploaded", cmd.Vertices.Name))
			}
			resources := m.resources(cmd.Bindings)
			outs := p.RunVertices(cmd.VertexCount, vertices, resources)
			cpu.Rasterize(target, outs, p.Fragment, p.FragmentBindings(resources), eng.SRGBTarget)
		case *renderer.FreeBuffer:
			delete(m.bufs, cmd.Buffer.ID)
		case *renderer.FreeImage:
			delete(m.images, cmd.Image.ID)
		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}
	return nil
}

// resources lays out the bindings by slot.
func (m *bindMap) resources(bindings []renderer.Binding) []cpu.CPUBinding {
	var n uint32
	for _, b := range bindings {
		n = max(n, b.Slot+1)
	}
	out := make([]cpu.CPUBinding, n)
	for _, b := range bindings {
		proxy := b.Resource
		switch proxy.Kind {
		case renderer.ResourceProxyKindBuffer:
			buf, ok := m.bufs[proxy.BufferProxy.ID]
			if !ok {
				panic(fmt.Sprintf("buffer %q hasn't been uploaded", proxy.BufferProxy.Name))
			}
			out[b.Slot] = buf
		case renderer.ResourceProxyKindImage:
			tex, ok := m.images[proxy.ImageProxy.ID]
			if !ok {
				panic("unexpected ok == false")
			}
			out[b.Slot] = cpu.CPUTexture{Texture: tex}
		case renderer.ResourceProxyKindSampler:
			out[b.Slot] = cpu.CPUSampler(proxy.SamplerProxy.Sampler)
		default:
			panic(fmt.Sprintf("unhandled type %d", proxy.Kind))
		}
	}
	return out
}

func textureFromUpload(cmd *renderer.UploadImage) (*gfx.Texture, error) {
	img := cmd.Image
	if want := int(img.Width) * int(img.Height) * 4; len(cmd.Data) != want {
		return nil, fmt.Errorf("image has %d bytes, want %d", len(cmd.Data), want)
	}
	tex := &gfx.Texture{
		Width:  int(img.Width),
		Height: int(img.Height),
		Pix:    cmd.Data,
	}
	switch img.Format {
	case renderer.Rgba8:
	case renderer.Rgba8Srgb:
		tex.SRGB = true
	case renderer.Bgra8:
		pix := make([]uint8, len(cmd.Data))
		for i := 0; i < len(pix); i += 4 {
			pix[i+0] = cmd.Data[i+2]
			pix[i+1] = cmd.Data[i+1]
			pix[i+2] = cmd.Data[i+0]
			pix[i+3] = cmd.Data[i+3]
		}
		tex.Pix = pix
	default:
		panic(fmt.Sprintf("unhandled value %d", img.Format))
	}
	return tex, nil
}
