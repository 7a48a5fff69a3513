package wgpu_engine

// OPT reuse bind groups

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"honnef.co/go/tiles/config"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/internal/logging"
	"honnef.co/go/tiles/jmath"
	"honnef.co/go/tiles/renderer"
	"honnef.co/go/tiles/shaders"
	"honnef.co/go/tiles/shaders/cpu"
	"honnef.co/go/wgpu"
)

type Engine struct {
	Device    *wgpu.Device
	format    wgpu.TextureFormat
	pipelines map[config.Variant]*renderPipeline
	samplers  map[gfx.Sampler]*wgpu.Sampler
	pool      resourcePool

	// Shared index buffer holding the two triangles of quadCapacity quads.
	quadIndices  *wgpu.Buffer
	quadCapacity uint32
}

// srcOver layers later draws over earlier ones, like gfx.SrcOver.
var srcOver = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

type renderPipeline struct {
	label           string
	pipeline        *wgpu.RenderPipeline
	bindGroupLayout *wgpu.BindGroupLayout
}

type bindMapImage struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

type bindMap struct {
	bufs   map[renderer.ResourceID]*wgpu.Buffer
	images map[renderer.ResourceID]*bindMapImage
}

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

type resourcePool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

func New(dev *wgpu.Device, options *RendererOptions) (*Engine, error) {
	eng := &Engine{
		Device:    dev,
		format:    options.TargetFormat,
		pipelines: make(map[config.Variant]*renderPipeline),
		samplers:  make(map[gfx.Sampler]*wgpu.Sampler),
		pool: resourcePool{
			bufs: make(map[bufferProperties][]*wgpu.Buffer),
		},
	}
	for _, v := range options.Preload {
		p, err := renderer.NewPipeline(v)
		if err != nil {
			return nil, err
		}
		if _, err := eng.pipeline(p); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// Release frees all GPU objects owned by the engine.
func (eng *Engine) Release() {
	for _, p := range eng.pipelines {
		p.pipeline.Release()
		p.bindGroupLayout.Release()
	}
	clear(eng.pipelines)
	for _, s := range eng.samplers {
		s.Release()
	}
	clear(eng.samplers)
	for _, bufs := range eng.pool.bufs {
		for _, buf := range bufs {
			buf.Release()
		}
	}
	clear(eng.pool.bufs)
	if eng.quadIndices != nil {
		eng.quadIndices.Release()
		eng.quadIndices = nil
		eng.quadCapacity = 0
	}
}

func (eng *Engine) pipeline(p *renderer.Pipeline) (*renderPipeline, error) {
	if rp, ok := eng.pipelines[p.Variant]; ok {
		return rp, nil
	}
	src, err := shaders.Source(p.Variant)
	if err != nil {
		return nil, err
	}
	rp := eng.createRenderPipeline(p, src)
	eng.pipelines[p.Variant] = rp
	return rp, nil
}

func (eng *Engine) createRenderPipeline(p *renderer.Pipeline, wgsl []byte) *renderPipeline {
	logging.Logger().Info("creating render pipeline", "label", p.Label)
	shader := eng.Device.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  p.Label,
		Source: wgpu.ShaderSourceWGSL(wgsl),
	})
	defer shader.Release()

	bindGroupLayout := eng.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   p.Label,
		Entries: bindGroupLayoutEntries(p.Entries),
	})
	pipelineLayout := eng.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Label,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	defer pipelineLayout.Release()

	pipeline := eng.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Label,
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     shader,
			EntryPoint: shaders.VertexEntryPoint,
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout(p.Layout)},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: shaders.FragmentEntryPoint,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    eng.format,
					Blend:     &srcOver,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			// Flipped projections reverse the winding of tiles.
			CullMode: wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	return &renderPipeline{
		label:           p.Label,
		pipeline:        pipeline,
		bindGroupLayout: bindGroupLayout,
	}
}

func (eng *Engine) sampler(s gfx.Sampler) *wgpu.Sampler {
	if out, ok := eng.samplers[s]; ok {
		return out
	}
	mode := extendToWGPU(s.Extend)
	filter := filterToWGPU(s.Filter)
	out := eng.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  mode,
		AddressModeV:  mode,
		AddressModeW:  mode,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	eng.samplers[s] = out
	return out
}

// ensureQuadIndices makes sure the shared index buffer covers n quads.
func (eng *Engine) ensureQuadIndices(queue *wgpu.Queue, n uint32) {
	if n <= eng.quadCapacity {
		return
	}
	if eng.quadIndices != nil {
		eng.quadIndices.Release()
	}
	capacity := uint32(poolSizeClass(uint64(n), 6))
	data := make([]byte, 0, capacity*uint32(len(cpu.QuadIndices))*4)
	for q := range capacity {
		for _, idx := range cpu.QuadIndices {
			data = binary.LittleEndian.AppendUint32(data, q*4+idx)
		}
	}
	eng.quadIndices = eng.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "quad_indices",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	queue.WriteBuffer(eng.quadIndices, 0, data)
	eng.quadCapacity = capacity
}

// RunRecording executes the recording, drawing into target. If clear is not
// nil, target is cleared before the first draw.
func (eng *Engine) RunRecording(
	queue *wgpu.Queue,
	recording *renderer.Recording,
	target *wgpu.TextureView,
	clear *wgpu.Color,
	label string,
) error {
	logging.Logger().Debug("running recording", "label", label, "commands", len(recording.Commands))

	var maxQuads uint32
	for _, cmd := range recording.Commands {
		if cmd, ok := cmd.(*renderer.Draw); ok {
			maxQuads = max(maxQuads, cmd.VertexCount/4)
		}
	}
	// The index buffer must not be replaced while passes refer to it.
	eng.ensureQuadIndices(queue, maxQuads)

	var freeBufs, freeImages []renderer.ResourceID
	bindMap := bindMap{
		bufs:   make(map[renderer.ResourceID]*wgpu.Buffer),
		images: make(map[renderer.ResourceID]*bindMapImage),
	}
	var bindGroups []*wgpu.BindGroup
	defer func() {
		for _, bg := range bindGroups {
			bg.Release()
		}
	}()

	loadOp := wgpu.LoadOpLoad
	var clearValue wgpu.Color
	if clear != nil {
		loadOp = wgpu.LoadOpClear
		clearValue = *clear
	}

	encoder := eng.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	beginPass := func() *wgpu.RenderPassEncoder {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:       target,
					LoadOp:     loadOp,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: clearValue,
				},
			},
		})
		loadOp = wgpu.LoadOpLoad
		return pass
	}

	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *renderer.UploadUniform:
			bufProxy := cmd.Buffer
			usage := wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			buf := eng.pool.getBuf(jmath.AlignUp(bufProxy.Size, 16), bufProxy.Name, usage, eng.Device)
			queue.WriteBuffer(buf, 0, cmd.Data)
			bindMap.bufs[bufProxy.ID] = buf

		case *renderer.UploadVertices:
			bufProxy := cmd.Buffer
			usage := wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
			buf := eng.pool.getBuf(jmath.AlignUp(bufProxy.Size, 4), bufProxy.Name, usage, eng.Device)
			queue.WriteBuffer(buf, 0, cmd.Data)
			bindMap.bufs[bufProxy.ID] = buf

		case *renderer.UploadImage:
			imageProxy := cmd.Image
			format := imageFormatToWGPU(imageProxy.Format)
			blockSize, ok := format.BlockCopySize(wgpu.TextureAspectAll)
			if !ok {
				panic("image format must have a valid block size")
			}
			texture := eng.Device.CreateTexture(&wgpu.TextureDescriptor{
				Size: wgpu.Extent3D{
					Width:              imageProxy.Width,
					Height:             imageProxy.Height,
					DepthOrArrayLayers: 1,
				},
				MipLevelCount: 1,
				SampleCount:   1,
				Dimension:     wgpu.TextureDimension2D,
				Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
				Format:        format,
			})
			textureView := texture.CreateView(&wgpu.TextureViewDescriptor{
				Dimension:       wgpu.TextureViewDimension2D,
				Aspect:          wgpu.TextureAspectAll,
				MipLevelCount:   ^uint32(0),
				ArrayLayerCount: ^uint32(0),
				BaseMipLevel:    0,
				BaseArrayLayer:  0,
				Format:          format,
			})
			queue.WriteTexture(
				&wgpu.ImageCopyTexture{
					Texture:  texture,
					MipLevel: 0,
					Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
					Aspect:   wgpu.TextureAspectAll,
				},
				cmd.Data,
				&wgpu.TextureDataLayout{
					Offset:       0,
					BytesPerRow:  imageProxy.Width * blockSize,
					RowsPerImage: imageProxy.Height,
				},
				&wgpu.Extent3D{
					Width:              imageProxy.Width,
					Height:             imageProxy.Height,
					DepthOrArrayLayers: 1,
				},
			)
			bindMap.images[imageProxy.ID] = &bindMapImage{texture, textureView}

		case *renderer.Draw:
			rp, err := eng.pipeline(cmd.Pipeline)
			if err != nil {
				encoder.Release()
				return err
			}
			vertices, ok := bindMap.bufs[cmd.Vertices.ID]
			if !ok {
				panic(fmt.Sprintf("vertex buffer %q hasn't been uploaded", cmd.Vertices.Name))
			}
			bindGroup := eng.createBindGroup(&bindMap, rp.bindGroupLayout, cmd.Bindings)
			bindGroups = append(bindGroups, bindGroup)

			quads := cmd.VertexCount / 4
			pass := beginPass()
			pass.SetPipeline(rp.pipeline)
			pass.SetBindGroup(0, bindGroup, nil)
			pass.SetVertexBuffer(0, vertices, 0, cmd.Vertices.Size)
			pass.SetIndexBuffer(eng.quadIndices, wgpu.IndexFormatUint32, 0, uint64(quads)*uint64(len(cpu.QuadIndices))*4)
			pass.DrawIndexed(quads*uint32(len(cpu.QuadIndices)), 1, 0, 0, 0)
			pass.End()
			pass.Release()

		case *renderer.FreeBuffer:
			freeBufs = append(freeBufs, cmd.Buffer.ID)
		case *renderer.FreeImage:
			freeImages = append(freeImages, cmd.Image.ID)
		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}

	if loadOp == wgpu.LoadOpClear {
		// Nothing was drawn, but the target still has to be cleared.
		pass := beginPass()
		pass.End()
		pass.Release()
	}

	cmd := encoder.Finish(nil)
	encoder.Release()
	queue.Submit(cmd)
	cmd.Release()

	for _, id := range freeBufs {
		buf, ok := bindMap.bufs[id]
		if ok {
			delete(bindMap.bufs, id)
			eng.pool.putBuf(buf)
		}
	}
	for _, id := range freeImages {
		tex, ok := bindMap.images[id]
		if ok {
			delete(bindMap.images, id)
			// TODO: have a pool to avoid needless re-allocation
			tex.view.Release()
			tex.texture.Release()
		}
	}
	return nil
}

func (eng *Engine) createBindGroup(
	bindMap *bindMap,
	layout *wgpu.BindGroupLayout,
	bindings []renderer.Binding,
) *wgpu.BindGroup {
	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, b := range bindings {
		proxy := b.Resource
		switch proxy.Kind {
		case renderer.ResourceProxyKindBuffer:
			buf, ok := bindMap.bufs[proxy.BufferProxy.ID]
			if !ok {
				panic(fmt.Sprintf("buffer %q hasn't been uploaded", proxy.BufferProxy.Name))
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: b.Slot,
				Buffer:  buf,
				Size:    ^uint64(0),
			}
		case renderer.ResourceProxyKindImage:
			img, ok := bindMap.images[proxy.ImageProxy.ID]
			if !ok {
				panic("unexpected ok == false")
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     b.Slot,
				TextureView: img.view,
				Size:        ^uint64(0),
			}
		case renderer.ResourceProxyKindSampler:
			entries[i] = wgpu.BindGroupEntry{
				Binding: b.Slot,
				Sampler: eng.sampler(proxy.SamplerProxy.Sampler),
				Size:    ^uint64(0),
			}
		default:
			panic(fmt.Sprintf("unhandled type %d", proxy.Kind))
		}
	}

	return eng.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
}

func (pool *resourcePool) getBuf(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	const sizeClassBits = 1

	roundedSize := poolSizeClass(size, sizeClassBits)
	props := bufferProperties{
		size:   roundedSize,
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok {
		if len(bufVec) > 0 {
			buf := bufVec[len(bufVec)-1]
			bufVec = bufVec[:len(bufVec)-1]
			pool.bufs[props] = bufVec
			return buf
		}
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  roundedSize,
		Usage: usage,
	})
}

func (pool *resourcePool) putBuf(buf *wgpu.Buffer) {
	props := bufferProperties{
		size:   buf.Size(),
		usages: buf.Usage(),
	}
	pool.bufs[props] = append(pool.bufs[props], buf)
}

func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}
