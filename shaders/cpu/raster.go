package cpu

import (
	"image"
	"math"

	"golang.org/x/image/math/f32"
	"honnef.co/go/tiles/gfx"
	"honnef.co/go/tiles/jmath"
)

// QuadIndices are the two triangles of a tile quad.
var QuadIndices = [6]uint32{0, 1, 2, 0, 2, 3}

type screenVertex struct {
	x, y float32
	// 1/w
	invW float32
	out  *VertexOutput
}

// Rasterize draws the quads described by outs, four vertices each, into
// dst. Fragments are composited over what is in dst in linear space. Triangles are not clipped; those
// with a vertex behind the viewer are skipped. If srgb is set, fragment
// colors are sRGB encoded before being stored, like an sRGB render target.
func Rasterize(dst *image.NRGBA, outs []VertexOutput, frag FragmentFunc, b *FragmentBindings, srgb bool) {
	bounds := dst.Bounds()
	width := float32(bounds.Dx())
	height := float32(bounds.Dy())

	toScreen := func(v *VertexOutput) (screenVertex, bool) {
		w := v.Position[3]
		if w <= 0 {
			return screenVertex{}, false
		}
		ndcX := v.Position[0] / w
		ndcY := v.Position[1] / w
		return screenVertex{
			x:    (ndcX + 1) / 2 * width,
			y:    (1 - ndcY) / 2 * height,
			invW: 1 / w,
			out:  v,
		}, true
	}

	for q := 0; q+4 <= len(outs); q += 4 {
		quad := outs[q : q+4 : q+4]
		var verts [4]screenVertex
		ok := true
		for i := range quad {
			verts[i], ok = toScreen(&quad[i])
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		for t := 0; t < len(QuadIndices); t += 3 {
			rasterizeTriangle(dst, verts[QuadIndices[t]], verts[QuadIndices[t+1]], verts[QuadIndices[t+2]], frag, b, srgb)
		}
	}
}

func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func rasterizeTriangle(dst *image.NRGBA, v0, v1, v2 screenVertex, frag FragmentFunc, b *FragmentBindings, srgb bool) {
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 {
		return
	}
	bounds := dst.Bounds()
	minX := max(int(jmath.Floor32(min(v0.x, v1.x, v2.x))), 0)
	minY := max(int(jmath.Floor32(min(v0.y, v1.y, v2.y))), 0)
	maxX := min(int(math.Ceil(float64(max(v0.x, v1.x, v2.x)))), bounds.Dx())
	maxY := min(int(math.Ceil(float64(max(v0.y, v1.y, v2.y)))), bounds.Dy())

	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {
			cx := float32(px) + 0.5
			cy := float32(py) + 0.5
			w0 := edge(v1, v2, cx, cy) / area
			w1 := edge(v2, v0, cx, cy) / area
			w2 := edge(v0, v1, cx, cy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			// Perspective-correct interpolation.
			p0 := w0 * v0.invW
			p1 := w1 * v1.invW
			p2 := w2 * v2.invW
			sum := p0 + p1 + p2
			p0 /= sum
			p1 /= sum
			p2 /= sum

			var in VertexOutput
			for i := range 4 {
				in.Color[i] = p0*v0.out.Color[i] + p1*v1.out.Color[i] + p2*v2.out.Color[i]
			}
			for i := range 2 {
				in.UV[i] = p0*v0.out.UV[i] + p1*v1.out.UV[i] + p2*v2.out.UV[i]
			}
			in.Position = f32.Vec4{cx, cy, 0, 1}

			c := frag(&in, b)
			for i := range c {
				c[i] = jmath.Clamp(c[i], 0, 1)
			}
			off := dst.PixOffset(bounds.Min.X+px, bounds.Min.Y+py)
			pix := dst.Pix[off : off+4 : off+4]
			c = gfx.SrcOver(c, loadPixel(pix, srgb))
			if srgb {
				c = gfx.EncodeSRGB(c)
			}
			for i := range pix {
				pix[i] = uint8(jmath.Clamp(c[i], 0, 1)*255 + 0.5)
			}
		}
	}
}

// loadPixel returns the linear color stored in pix.
func loadPixel(pix []uint8, srgb bool) f32.Vec4 {
	if srgb {
		return f32.Vec4{
			gfx.DecodeSRGB8(pix[0]),
			gfx.DecodeSRGB8(pix[1]),
			gfx.DecodeSRGB8(pix[2]),
			float32(pix[3]) / 255,
		}
	}
	return f32.Vec4{
		float32(pix[0]) / 255,
		float32(pix[1]) / 255,
		float32(pix[2]) / 255,
		float32(pix[3]) / 255,
	}
}
