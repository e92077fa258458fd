// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calib estimates static IMU calibration (gyro bias, accelerometer
// bias and scale) from raw samples and stores it as JSON.
package calib

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/relabs-tech/strapdown/internal/imu"
)

// MaxSamples keeps full-scale int16 sums inside int32.
const MaxSamples = 1 << 16

// Accumulator sums raw samples. The zero value is ready to use.
type Accumulator struct {
	sum   imu.Axis3i32
	sumSq  [3]float64
	sumAbs [3]float64
	n      int
}

// Add folds s into the running sums. It reports false, and ignores s,
// once MaxSamples samples have been added.
func (a *Accumulator) Add(s imu.Axis3i16) bool {
	if a.n >= MaxSamples {
		return false
	}
	a.sum.X += int32(s.X)
	a.sum.Y += int32(s.Y)
	a.sum.Z += int32(s.Z)
	a.sumSq[0] += float64(s.X) * float64(s.X)
	a.sumSq[1] += float64(s.Y) * float64(s.Y)
	a.sumSq[2] += float64(s.Z) * float64(s.Z)
	a.sumAbs[0] += math.Abs(float64(s.X))
	a.sumAbs[1] += math.Abs(float64(s.Y))
	a.sumAbs[2] += math.Abs(float64(s.Z))
	a.n++
	return true
}

// Len returns the number of samples added.
func (a *Accumulator) Len() int { return a.n }

// Sum returns the raw per-axis sums.
func (a *Accumulator) Sum() imu.Axis3i32 { return a.sum }

// Reset discards every sample.
func (a *Accumulator) Reset() { *a = Accumulator{} }

// Mean returns the per-axis mean in counts, or zero when empty.
func (a *Accumulator) Mean() imu.Axis3f {
	if a.n == 0 {
		return imu.Axis3f{}
	}
	n := float32(a.n)
	return imu.Axis3f{float32(a.sum.X) / n, float32(a.sum.Y) / n, float32(a.sum.Z) / n}
}

// MeanAbs returns the per-axis mean magnitude in counts, or zero when empty.
func (a *Accumulator) MeanAbs() imu.Axis3f {
	if a.n == 0 {
		return imu.Axis3f{}
	}
	n := float64(a.n)
	return imu.Axis3f{float32(a.sumAbs[0] / n), float32(a.sumAbs[1] / n), float32(a.sumAbs[2] / n)}
}

// StdDev returns the per-axis population standard deviation in counts.
func (a *Accumulator) StdDev() imu.Axis3f {
	if a.n == 0 {
		return imu.Axis3f{}
	}
	n := float64(a.n)
	sums := [3]float64{float64(a.sum.X), float64(a.sum.Y), float64(a.sum.Z)}
	var sd imu.Axis3f
	for i := range sd {
		m := sums[i] / n
		v := a.sumSq[i]/n - m*m
		if v < 0 {
			v = 0
		}
		sd[i] = math32.Sqrt(float32(v))
	}
	return sd
}
