// Package jmath contains the small amount of float32 vector and matrix math
// shared by the CPU shader stages and the uniform setup.
//
// Matrices passed to shaders are column-major, as WGSL expects. Matrices in
// f32.Mat4 form are row-major, as documented by golang.org/x/image/math/f32.
package jmath

import (
	"math"

	"golang.org/x/exp/constraints"
	"golang.org/x/image/math/f32"
	"honnef.co/go/curve"
)

func Abs32(f float32) float32 {
	return float32(math.Abs(float64(f)))
}

func Floor32(f float32) float32 {
	return float32(math.Floor(float64(f)))
}

func Pow32(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func Add2(a, b f32.Vec2) f32.Vec2 {
	return f32.Vec2{a[0] + b[0], a[1] + b[1]}
}

func Sub2(a, b f32.Vec2) f32.Vec2 {
	return f32.Vec2{a[0] - b[0], a[1] - b[1]}
}

// Mul2 multiplies component-wise.
func Mul2(a, b f32.Vec2) f32.Vec2 {
	return f32.Vec2{a[0] * b[0], a[1] * b[1]}
}

// Div2 divides component-wise.
func Div2(a, b f32.Vec2) f32.Vec2 {
	return f32.Vec2{a[0] / b[0], a[1] / b[1]}
}

// Mul4 multiplies component-wise.
func Mul4(a, b f32.Vec4) f32.Vec4 {
	return f32.Vec4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// Pow4 raises every component of v, including the fourth, to e.
func Pow4(v f32.Vec4, e float32) f32.Vec4 {
	return f32.Vec4{Pow32(v[0], e), Pow32(v[1], e), Pow32(v[2], e), Pow32(v[3], e)}
}

func Clamp[T constraints.Ordered](x, lo, hi T) T {
	return min(max(x, lo), hi)
}

// MulColumnMajor computes m * v for a column-major 4x4 matrix.
func MulColumnMajor(m *[16]float32, v f32.Vec4) f32.Vec4 {
	var out f32.Vec4
	for r := range 4 {
		out[r] = m[r]*v[0] + m[4+r]*v[1] + m[8+r]*v[2] + m[12+r]*v[3]
	}
	return out
}

// ColumnMajor converts a row-major matrix to the column-major layout used by
// uniform buffers.
func ColumnMajor(m *f32.Mat4) [16]float32 {
	var out [16]float32
	for r := range 4 {
		for c := range 4 {
			out[c*4+r] = m[r*4+c]
		}
	}
	return out
}

// MulMat4 returns a * b.
func MulMat4(a, b *f32.Mat4) f32.Mat4 {
	var out f32.Mat4
	for r := range 4 {
		for c := range 4 {
			var sum float32
			for k := range 4 {
				sum += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

var Identity4 = f32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Ortho returns an orthographic projection mapping the box [left, right] x
// [bottom, top] x [near, far] to clip space with depth in [0, 1].
func Ortho(left, right, bottom, top, near, far float32) f32.Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near
	return f32.Mat4{
		2 / rl, 0, 0, -(right + left) / rl,
		0, 2 / tb, 0, -(top + bottom) / tb,
		0, 0, 1 / fn, -near / fn,
		0, 0, 0, 1,
	}
}

// Mat4FromAffine embeds a 2D affine transform in a row-major 4x4 matrix that
// leaves z untouched.
func Mat4FromAffine(aff curve.Affine) f32.Mat4 {
	c := aff.Coefficients()
	return f32.Mat4{
		float32(c[0]), float32(c[2]), 0, float32(c[4]),
		float32(c[1]), float32(c[3]), 0, float32(c[5]),
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// ViewProjFromAffine returns proj * camera, where camera maps world space
// to view space.
func ViewProjFromAffine(proj f32.Mat4, camera curve.Affine) f32.Mat4 {
	view := Mat4FromAffine(camera)
	return MulMat4(&proj, &view)
}

// Vec2FromCurve narrows a curve.Vec2 to float32.
func Vec2FromCurve(v curve.Vec2) f32.Vec2 {
	return f32.Vec2{float32(v.X), float32(v.Y)}
}

func AlignUp[T constraints.Integer](len T, alignment T) T {
	return (len + alignment - 1) &^ (alignment - 1)
}
