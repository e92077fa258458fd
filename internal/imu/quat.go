// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"github.com/chewxy/math32"
)

// Quatf is the quaternion A + B⋅i + C⋅j + D⋅k.
//
// When a Quatf describes an attitude it is the orientation of the body
// frame in the world frame: Transform takes body vectors to the world
// frame and InverseTransform takes world vectors to the body frame.
// Nothing enforces unit length; rotating by a non-unit quaternion yields
// a defined but scaled result.
type Quatf struct {
	A float32 `json:"a"`
	B float32 `json:"b"`
	C float32 `json:"c"`
	D float32 `json:"d"`
}

// QuatIdentity is the rotation that leaves every vector unchanged.
var QuatIdentity = Quatf{A: 1}

// NewQuatf returns a + b⋅i + c⋅j + d⋅k.
func NewQuatf(a, b, c, d float32) Quatf {
	return Quatf{A: a, B: b, C: c, D: d}
}

// Conjugate returns q*. For unit q this is also q⁻¹.
func Conjugate(q Quatf) Quatf {
	return Quatf{A: q.A, B: -q.B, C: -q.C, D: -q.D}
}

// HamiltonProduct returns l ⊗ r. The product is not commutative.
func HamiltonProduct(l, r Quatf) Quatf {
	a1, b1, c1, d1 := l.A, l.B, l.C, l.D
	a2, b2, c2, d2 := r.A, r.B, r.C, r.D
	return Quatf{
		A: a1*a2 - b1*b2 - c1*c2 - d1*d2,
		B: a1*b2 + b1*a2 + c1*d2 - d1*c2,
		C: a1*c2 - b1*d2 + c1*a2 + d1*b2,
		D: a1*d2 + b1*c2 - c1*b2 + d1*a2,
	}
}

// FromVector embeds v as the pure quaternion (0, v).
func FromVector(v Axis3f) Quatf {
	return Quatf{B: v[0], C: v[1], D: v[2]}
}

// ToVector returns the imaginary part of q. The real part is dropped,
// so q should be pure (e.g. the result of a rotation sandwich).
func ToVector(q Quatf) Axis3f {
	return Axis3f{q.B, q.C, q.D}
}

// Transform rotates v by q (body to world).
func Transform(q Quatf, v Axis3f) Axis3f {
	return ToVector(HamiltonProduct(HamiltonProduct(q, FromVector(v)), Conjugate(q)))
}

// InverseTransform rotates v by q⁻¹ (world to body).
// InverseTransform(q, Transform(q, v)) == v for unit q, up to rounding.
func InverseTransform(q Quatf, v Axis3f) Axis3f {
	return ToVector(HamiltonProduct(HamiltonProduct(Conjugate(q), FromVector(v)), q))
}

// QuatAdd returns l + r.
func QuatAdd(l, r Quatf) Quatf {
	return Quatf{A: l.A + r.A, B: l.B + r.B, C: l.C + r.C, D: l.D + r.D}
}

// QuatScale returns q ⋅ k.
func QuatScale(q Quatf, k float32) Quatf {
	return Quatf{A: q.A * k, B: q.B * k, C: q.C * k, D: q.D * k}
}

// QuatNorm returns |q|.
func QuatNorm(q Quatf) float32 {
	return math32.Sqrt(q.A*q.A + q.B*q.B + q.C*q.C + q.D*q.D)
}

// QuatNormalize returns q / |q|. The zero quaternion yields NaN components.
func QuatNormalize(q Quatf) Quatf {
	return QuatScale(q, 1/QuatNorm(q))
}
