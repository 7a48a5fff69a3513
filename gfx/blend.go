// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package gfx

import "golang.org/x/image/math/f32"

// SrcOver composites src over dst, both linear and not premultiplied. It is
// the fixed-function blend the GPU engine configures: color uses src-alpha
// and one-minus-src-alpha, alpha uses one and one-minus-src-alpha.
func SrcOver(src, dst f32.Vec4) f32.Vec4 {
	sa := src[3]
	inv := 1 - sa
	return f32.Vec4{
		src[0]*sa + dst[0]*inv,
		src[1]*sa + dst[1]*inv,
		src[2]*sa + dst[2]*inv,
		sa + dst[3]*inv,
	}
}

// DecodeSRGB8 returns the linear value of an 8-bit sRGB encoded component.
func DecodeSRGB8(v uint8) float32 {
	return srgbToLinear[v]
}
