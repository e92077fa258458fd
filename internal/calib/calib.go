// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calib

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/relabs-tech/strapdown/internal/imu"
)

const (
	// SchemaVersion is written into every Result.
	// Version 2 added the range codes.
	SchemaVersion = 2

	// Quality heuristics, in raw counts.
	stillStdGood = 3.0  // "good" standard deviation threshold for stillness
	stillStdBad  = 12.0 // above this confidence drops to the floor

	// Confidence floor (we never want hard zero unless we error out)
	confFloor = 0.05

	// Guided rotations
	gyroRotMinDur  = 8 * time.Second
	dominanceGood  = 0.70 // dominant-axis ratio for guided single-axis rotations
	dominanceBad   = 0.45
	minMeanAbsRate = 20.0 // minimal mean abs gyro rate (counts) to consider "real rotation"

	// StaticBiasWeight is the share of the static gyro bias in the final
	// bias when the rotation on that axis is fully trusted.
	StaticBiasWeight = 0.75
)

// Result is the calibration file. All values are raw counts, valid only for
// the range codes they were captured with.
//
//	corrected gyro  = raw - GyroBias
//	corrected accel = (raw - AccelBias) / AccelScale   (in g)
type Result struct {
	SchemaVersion   int        `json:"schema_version"`
	CalibrationAt   time.Time  `json:"calibration_at"`
	IMU             string     `json:"imu"`         // "left" or "right"
	AccelRange      byte       `json:"accel_range"` // IMU_ACCEL_RANGE code
	GyroRange       byte       `json:"gyro_range"`  // IMU_GYRO_RANGE code
	GyroBiasStatic  imu.Axis3f `json:"gyro_bias_static"`
	GyroBiasDynamic imu.Axis3f `json:"gyro_bias_dynamic"`
	GyroBias        imu.Axis3f `json:"gyro_bias"` // final, applied by the producer
	AccelBias       imu.Axis3f `json:"accel_bias"`
	AccelScale      imu.Axis3f `json:"accel_scale"` // counts per g; zero when not calibrated
	Confidence      Confidence `json:"confidence"`
	Notes           []string   `json:"notes,omitempty"`
}

// Confidence components and overall, each in [0, 1].
type Confidence struct {
	GyroStatic float64 `json:"gyro_static"`
	GyroRot    float64 `json:"gyro_rotation"`
	Accel6Pt   float64 `json:"accel_6pt"`
	Overall    float64 `json:"overall"`
}

// ErrRangeMismatch is returned when a Result is applied at other range codes
// than it was captured with.
var ErrRangeMismatch = errors.New("calibration range mismatch")

// CheckRanges reports whether r was captured at the given range codes.
func (r *Result) CheckRanges(accelRange, gyroRange byte) error {
	if r.AccelRange != accelRange || r.GyroRange != gyroRange {
		return fmt.Errorf("%w: file has accel %d gyro %d, configured accel %d gyro %d",
			ErrRangeMismatch, r.AccelRange, r.GyroRange, accelRange, gyroRange)
	}
	return nil
}

// ErrNoGravity is returned when the six poses do not separate gravity.
var ErrNoGravity = errors.New("accelerometer calibration failed: insufficient gravity separation")

// GyroBias returns the mean of still samples and how still they were.
func GyroBias(still *Accumulator) (imu.Axis3f, float64) {
	return still.Mean(), StillnessConfidence(still.StdDev())
}

// SixPoint solves bias and scale from mean accelerometer readings taken
// with each axis pointing up (up[i]) and down (down[i]).
//
//	up   = scale * (+1 g) + bias
//	down = scale * (-1 g) + bias
func SixPoint(up, down [3]imu.Axis3f) (bias, scale imu.Axis3f, err error) {
	for i := 0; i < 3; i++ {
		bias[i] = (up[i][i] + down[i][i]) / 2
		scale[i] = (up[i][i] - down[i][i]) / 2
		if scale[i] < 1 {
			return imu.Axis3f{}, imu.Axis3f{}, fmt.Errorf("axis %d: %w", i, ErrNoGravity)
		}
	}
	return bias, scale, nil
}

// StillnessConfidence maps the mean per-axis standard deviation to [floor, 1].
func StillnessConfidence(std imu.Axis3f) float64 {
	s := float64(std[0]+std[1]+std[2]) / 3
	switch {
	case s <= stillStdGood:
		return 1.0
	case s >= stillStdBad:
		return confFloor
	default:
		t := (s - stillStdGood) / (stillStdBad - stillStdGood)
		return clamp01(1.0 - 0.95*t)
	}
}

// GravityConsistency is 1 when the three axis scales agree and falls with
// their coefficient of variation.
func GravityConsistency(scale imu.Axis3f) float64 {
	m := float64(scale[0]+scale[1]+scale[2]) / 3
	if m <= 0 {
		return confFloor
	}
	var ss float64
	for _, s := range scale {
		d := float64(s) - m
		ss += d * d
	}
	cv := math.Sqrt(ss/3) / m
	return clamp01(1.0 - cv/0.5)
}

// DynamicGyroBias estimates the bias on axis from a guided rotation that
// ends where it started: the true rate integrates to zero, so the mean
// reading is the bias. The other axes keep the static estimate.
func DynamicGyroBias(axis int, rot *Accumulator, static imu.Axis3f) imu.Axis3f {
	b := static
	b[axis] = rot.Mean()[axis]
	return b
}

// AxisDominance returns each axis' share of the mean absolute rate.
func AxisDominance(meanAbs imu.Axis3f) imu.Axis3f {
	sum := meanAbs[0] + meanAbs[1] + meanAbs[2]
	if sum <= 0 {
		return imu.Axis3f{}
	}
	return imu.Scale(meanAbs, 1/sum)
}

// RotationConfidence scores a capture that was meant to turn about axis
// (0, 1, 2 for x, y, z) for dur: long enough, mostly about that axis and
// fast enough.
func RotationConfidence(axis int, rot *Accumulator, dur time.Duration) float64 {
	meanAbs := rot.MeanAbs()
	dom := float64(AxisDominance(meanAbs)[axis])
	rate := float64(meanAbs[axis])

	durFactor := clamp01(dur.Seconds() / gyroRotMinDur.Seconds())

	var domFactor float64
	switch {
	case dom >= dominanceGood:
		domFactor = 1
	case dom <= dominanceBad:
		domFactor = 0.2
	default:
		t := (dom - dominanceBad) / (dominanceGood - dominanceBad)
		domFactor = 0.2 + 0.8*clamp01(t)
	}

	rateFactor := 0.2
	if rate >= minMeanAbsRate {
		// full credit at 4x the threshold
		rateFactor = clamp01(rate / (4 * minMeanAbsRate))
	}

	return clamp01(math.Max(0.25*durFactor+0.45*domFactor+0.30*rateFactor, confFloor))
}

// RotationOverall averages the per-axis rotation confidences, weighting
// each by itself so one poor axis does not hide two good ones.
func RotationOverall(conf [3]float64) float64 {
	var num, den float64
	for _, c := range conf {
		w := clamp01(c)
		num += w * c
		den += w
	}
	if den == 0 {
		return confFloor
	}
	return clamp01(num / den)
}

// BlendGyroBias mixes static and dynamic biases per axis. With full
// confidence on an axis the static share is StaticBiasWeight; with none
// the static bias is kept as is.
func BlendGyroBias(static, dynamic imu.Axis3f, conf [3]float64) imu.Axis3f {
	var b imu.Axis3f
	for i := range b {
		w := float32((1 - StaticBiasWeight) * clamp01(conf[i]))
		b[i] = (1-w)*static[i] + w*dynamic[i]
	}
	return b
}

// Overall combines the component confidences.
func Overall(gyroStatic, gyroRot, accel6 float64) float64 {
	return clamp01(0.3*gyroStatic + 0.3*gyroRot + 0.4*accel6)
}

// Save writes r as indented JSON.
func (r *Result) Save(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("calibration marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("calibration write %s: %w", path, err)
	}
	return nil
}

// Load reads a file written by Save.
func Load(path string) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("calibration read: %w", err)
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("calibration parse %s: %w", path, err)
	}
	if r.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("calibration %s: unsupported schema version %d", path, r.SchemaVersion)
	}
	return &r, nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
