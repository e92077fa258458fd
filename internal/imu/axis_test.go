// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"testing"
)

const tolerance = 1e-5

// near compares with an absolute tolerance near zero and a relative one
// for larger magnitudes.
func near(a, b float32) bool {
	x, y := float64(a), float64(b)
	return math.Abs(x-y) <= tolerance*math.Max(1, math.Max(math.Abs(x), math.Abs(y)))
}

func nearAxis(v, w Axis3f) bool {
	return near(v[0], w[0]) && near(v[1], w[1]) && near(v[2], w[2])
}

var samples = []Axis3f{
	{},
	{1, 2, 4},
	{0, -1, 2},
	{-3.5, 0.25, 9.81},
	{1e3, -2e-3, 7},
}

func TestAxis3fViews(t *testing.T) {
	v := NewAxis3f(1, -2, 3)
	if v.X() != v[0] || v.Y() != v[1] || v.Z() != v[2] {
		t.Fatalf("Axis3f views disagree: %v X=%v Y=%v Z=%v", v, v.X(), v.Y(), v.Z())
	}
	v[1] = 8
	if v.Y() != 8 {
		t.Fatalf("Axis3f.Y after index write\nhave %v\nwant 8", v.Y())
	}
	if v != (Axis3f{1, 8, 3}) {
		t.Fatalf("NewAxis3f\nhave %v\nwant [1 8 3]", v)
	}
}

func TestAddSub(t *testing.T) {
	v := Axis3f{1, 2, 4}
	w := Axis3f{0, -1, 2}

	if u := Add(v, w); u != (Axis3f{1, 1, 6}) {
		t.Fatalf("Add\nhave %v\nwant [1 1 6]", u)
	}
	if u := Sub(v, w); u != (Axis3f{1, 3, 2}) {
		t.Fatalf("Sub\nhave %v\nwant [1 3 2]", u)
	}
	if u := Sub(w, v); u != (Axis3f{-1, -3, -2}) {
		t.Fatalf("Sub\nhave %v\nwant [-1 -3 -2]", u)
	}

	var zero Axis3f
	for _, s := range samples {
		if u := Add(s, zero); u != s {
			t.Fatalf("Add(%v, 0)\nhave %v\nwant %v", s, u, s)
		}
		if u := Sub(s, zero); u != s {
			t.Fatalf("Sub(%v, 0)\nhave %v\nwant %v", s, u, s)
		}
		if u := Sub(s, s); u != zero {
			t.Fatalf("Sub(%v, %v)\nhave %v\nwant %v", s, s, u, zero)
		}
	}
}

func TestScale(t *testing.T) {
	var zero Axis3f
	for _, s := range samples {
		if u := Scale(s, 1); u != s {
			t.Fatalf("Scale(%v, 1)\nhave %v\nwant %v", s, u, s)
		}
		if u := Scale(s, 0); u != zero {
			t.Fatalf("Scale(%v, 0)\nhave %v\nwant %v", s, u, zero)
		}
		for _, k := range [][2]float32{{2, 0.5}, {-3, 1.5}, {0.1, 7}} {
			u := Scale(Scale(s, k[0]), k[1])
			w := Scale(s, k[0]*k[1])
			if !nearAxis(u, w) {
				t.Fatalf("Scale(Scale(%v, %v), %v)\nhave %v\nwant %v", s, k[0], k[1], u, w)
			}
		}
	}
	if u := Scale(Axis3f{1, -2, 4}, -2); u != (Axis3f{-2, 4, -8}) {
		t.Fatalf("Scale\nhave %v\nwant [-2 4 -8]", u)
	}
}

func TestLength(t *testing.T) {
	if l := LengthSq(Axis3f{1, 2, 4}); l != 21 {
		t.Fatalf("LengthSq\nhave %v\nwant 21", l)
	}
	if l := Length(Axis3f{3, 4, 0}); l != 5 {
		t.Fatalf("Length\nhave %v\nwant 5", l)
	}
	if l := Length(Axis3f{0, -1, 2}); l != float32(math.Sqrt(5)) {
		t.Fatalf("Length\nhave %v\nwant %v", l, math.Sqrt(5))
	}
	if l := Length(Axis3f{}); l != 0 {
		t.Fatalf("Length of zero vector\nhave %v\nwant 0", l)
	}
	for _, s := range samples {
		l := Length(s)
		if l < 0 {
			t.Fatalf("Length(%v) negative: %v", s, l)
		}
		if (l == 0) != (s == Axis3f{}) {
			t.Fatalf("Length(%v) = %v, zero only for the zero vector", s, l)
		}
	}
}

func TestDist(t *testing.T) {
	a := Axis3f{1, 1, 1}
	b := Axis3f{4, 5, 1}
	if d := DistSq(a, b); d != 25 {
		t.Fatalf("DistSq\nhave %v\nwant 25", d)
	}
	if d := Dist(a, b); d != 5 {
		t.Fatalf("Dist\nhave %v\nwant 5", d)
	}
	for _, p := range samples {
		if d := Dist(p, p); d != 0 {
			t.Fatalf("Dist(%v, %v)\nhave %v\nwant 0", p, p, d)
		}
		for _, q := range samples {
			if d, e := Dist(p, q), Dist(q, p); d != e {
				t.Fatalf("Dist not symmetric for %v, %v: %v != %v", p, q, d, e)
			}
			for _, r := range samples {
				pr, pq, qr := Dist(p, r), Dist(p, q), Dist(q, r)
				if pr > (pq+qr)*(1+tolerance) {
					t.Fatalf("triangle inequality fails for %v, %v, %v: %v > %v + %v", p, q, r, pr, pq, qr)
				}
			}
		}
	}
}

func TestDotCross(t *testing.T) {
	v := Axis3f{1, 2, 4}
	w := Axis3f{0, -1, 2}
	if d := Dot(v, w); d != 6 {
		t.Fatalf("Dot\nhave %v\nwant 6", d)
	}
	x, y := Axis3f{1, 0, 0}, Axis3f{0, 1, 0}
	if u := Cross(x, y); u != (Axis3f{0, 0, 1}) {
		t.Fatalf("Cross\nhave %v\nwant [0 0 1]", u)
	}
	if u := Cross(y, x); u != (Axis3f{0, 0, -1}) {
		t.Fatalf("Cross\nhave %v\nwant [0 0 -1]", u)
	}
	if d := Dot(Cross(v, w), v); d != 0 {
		t.Fatalf("Cross result not orthogonal\nhave %v\nwant 0", d)
	}
}

func TestNonFinitePropagates(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	u := Add(Axis3f{nan, 0, 0}, Axis3f{1, 2, 3})
	if !math.IsNaN(float64(u[0])) || u[1] != 2 || u[2] != 3 {
		t.Fatalf("Add with NaN\nhave %v\nwant [NaN 2 3]", u)
	}
	if l := Length(Axis3f{inf, 0, 0}); !math.IsInf(float64(l), 1) {
		t.Fatalf("Length with +Inf\nhave %v\nwant +Inf", l)
	}
	if l := LengthSq(Axis3f{0, nan, 0}); !math.IsNaN(float64(l)) {
		t.Fatalf("LengthSq with NaN\nhave %v\nwant NaN", l)
	}
}
