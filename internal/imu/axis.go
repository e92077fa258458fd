// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package imu holds the numeric primitives of the inertial pipeline: raw
// sample carriers, float vectors and quaternions.
//
// Every operation is a pure function over values. Nothing allocates,
// nothing branches on its inputs and nothing reports errors: NaN and
// infinity propagate per IEEE-754, so callers validate sensor data before
// it reaches this package.
package imu

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Axis3i16 is a raw, unscaled sensor sample.
type Axis3i16 struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Axis3i32 is a wide integer triple, used for accumulating samples.
type Axis3i32 struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// Axis3f is a physical quantity (acceleration, rate, position).
// Index 0, 1 and 2 are x, y and z.
type Axis3f f32.Vec3

// NewAxis3f returns (x, y, z).
func NewAxis3f(x, y, z float32) Axis3f {
	return Axis3f{x, y, z}
}

// X returns the x component.
func (v Axis3f) X() float32 { return v[0] }

// Y returns the y component.
func (v Axis3f) Y() float32 { return v[1] }

// Z returns the z component.
func (v Axis3f) Z() float32 { return v[2] }

// Add returns a + b.
func Add(a, b Axis3f) Axis3f {
	return Axis3f{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub returns a - b.
func Sub(a, b Axis3f) Axis3f {
	return Axis3f{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Scale returns a ⋅ k.
func Scale(a Axis3f, k float32) Axis3f {
	return Axis3f{a[0] * k, a[1] * k, a[2] * k}
}

// Dot returns a ⋅ b.
func Dot(a, b Axis3f) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross returns a × b.
func Cross(a, b Axis3f) Axis3f {
	return Axis3f{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// LengthSq returns v ⋅ v.
func LengthSq(v Axis3f) float32 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Length returns the length of v, computed in single precision.
func Length(v Axis3f) float32 {
	return math32.Sqrt(LengthSq(v))
}

// DistSq returns the squared distance between a and b.
func DistSq(a, b Axis3f) float32 {
	return LengthSq(Sub(b, a))
}

// Dist returns the distance between a and b.
func Dist(a, b Axis3f) float32 {
	return math32.Sqrt(DistSq(a, b))
}
