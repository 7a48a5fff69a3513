package renderer

import (
	"fmt"
	"sync/atomic"

	"honnef.co/go/tiles/gfx"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

type ResourceProxyKind int

const (
	ResourceProxyKindBuffer ResourceProxyKind = iota + 1
	ResourceProxyKindImage
	ResourceProxyKindSampler
)

type ResourceProxy struct {
	Kind ResourceProxyKind
	BufferProxy
	ImageProxy
	SamplerProxy
}

type Recording struct {
	Commands []Command
}

func (rec *Recording) push(cmd Command) {
	rec.Commands = append(rec.Commands, cmd)
}

func (rec *Recording) UploadUniform(name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(&UploadUniform{buf, data})
	return buf
}

func (rec *Recording) UploadVertices(name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(&UploadVertices{buf, data})
	return buf
}

func (rec *Recording) UploadImage(width, height uint32, format ImageFormat, data []byte) ImageProxy {
	imageProxy := NewImageProxy(width, height, format)
	rec.push(&UploadImage{imageProxy, data})
	return imageProxy
}

func (rec *Recording) Draw(pipeline *Pipeline, vertices BufferProxy, vertexCount uint32, bindings []Binding) {
	rec.push(&Draw{pipeline, vertices, vertexCount, bindings})
}

func (rec *Recording) FreeBuffer(buf BufferProxy) {
	rec.push(&FreeBuffer{buf})
}

func (rec *Recording) FreeImage(image ImageProxy) {
	rec.push(&FreeImage{image})
}

func (rec *Recording) FreeResource(resource ResourceProxy) {
	switch resource.Kind {
	case ResourceProxyKindBuffer:
		rec.FreeBuffer(resource.BufferProxy)
	case ResourceProxyKindImage:
		rec.FreeImage(resource.ImageProxy)
	case ResourceProxyKindSampler:
		// Samplers are created and cached by the engines.
	default:
		panic(fmt.Sprintf("unhandled resource kind %d", resource.Kind))
	}
}

func NewBufferProxy(size uint64, name string) BufferProxy {
	id := nextResourceID()
	return BufferProxy{size, id, name}
}

func NewImageProxy(width, height uint32, format ImageFormat) ImageProxy {
	id := nextResourceID()
	return ImageProxy{
		Width:  width,
		Height: height,
		Format: format,
		ID:     id,
	}
}

func NewSamplerProxy(s gfx.Sampler) SamplerProxy {
	return SamplerProxy{Sampler: s, ID: nextResourceID()}
}

type BufferProxy struct {
	Size uint64
	ID   ResourceID
	Name string
}

func (p BufferProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:        ResourceProxyKindBuffer,
		BufferProxy: p,
	}
}

type ImageFormat int

const (
	Rgba8 ImageFormat = iota
	Rgba8Srgb
	Bgra8
)

type ImageProxy struct {
	Width  uint32
	Height uint32
	Format ImageFormat
	ID     ResourceID
}

func (p ImageProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:       ResourceProxyKindImage,
		ImageProxy: p,
	}
}

type SamplerProxy struct {
	Sampler gfx.Sampler
	ID      ResourceID
}

func (p SamplerProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:         ResourceProxyKindSampler,
		SamplerProxy: p,
	}
}

// Binding attaches a resource to a slot of bind group 0.
type Binding struct {
	Slot     uint32
	Resource ResourceProxy
}

type Command interface {
	isCommand()
}

func (*UploadUniform) isCommand()  {}
func (*UploadVertices) isCommand() {}
func (*UploadImage) isCommand()    {}
func (*Draw) isCommand()           {}
func (*FreeBuffer) isCommand()     {}
func (*FreeImage) isCommand()      {}

type UploadUniform struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadVertices struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadImage struct {
	Image ImageProxy
	Data  []byte
}

// Draw draws VertexCount/4 tile quads, two triangles each.
type Draw struct {
	Pipeline    *Pipeline
	Vertices    BufferProxy
	VertexCount uint32
	Bindings    []Binding
}

type FreeBuffer struct {
	Buffer BufferProxy
}

type FreeImage struct {
	Image ImageProxy
}
