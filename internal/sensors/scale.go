// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math"

	"github.com/relabs-tech/strapdown/internal/calib"
	"github.com/relabs-tech/strapdown/internal/imu"
)

// MPU9250 sensitivities, indexed by the range codes of IMU_ACCEL_RANGE and
// IMU_GYRO_RANGE.
var (
	accelLSBPerG  = [4]float32{16384, 8192, 4096, 2048}
	gyroLSBPerDPS = [4]float32{131, 65.5, 32.8, 16.4}
	accelRangeG   = [4]int{2, 4, 8, 16}
	gyroRangeDPS  = [4]int{250, 500, 1000, 2000}
)

const (
	degToRad = float32(math.Pi / 180)
	radToDeg = float32(180 / math.Pi)
)

// Scaler converts raw MPU9250 counts into g and rad/s, applying an
// optional static calibration first.
type Scaler struct {
	accelLSB  float32
	gyroLSB   float32
	accelBias imu.Axis3f // counts
	accelDiv  imu.Axis3f // counts per g, per axis
	gyroBias  imu.Axis3f // counts
}

// NewScaler returns an uncalibrated scaler for the given range codes.
func NewScaler(accelRange, gyroRange byte) (*Scaler, error) {
	if int(accelRange) >= len(accelLSBPerG) {
		return nil, fmt.Errorf("accel range code %d out of range 0-3", accelRange)
	}
	if int(gyroRange) >= len(gyroLSBPerDPS) {
		return nil, fmt.Errorf("gyro range code %d out of range 0-3", gyroRange)
	}
	lsb := accelLSBPerG[accelRange]
	return &Scaler{
		accelLSB: lsb,
		gyroLSB:  gyroLSBPerDPS[gyroRange],
		accelDiv: imu.Axis3f{lsb, lsb, lsb},
	}, nil
}

// Calibrate applies r. An accelerometer scale with any non-positive axis is
// ignored and the datasheet sensitivity is kept.
func (s *Scaler) Calibrate(r *calib.Result) {
	s.gyroBias = r.GyroBias
	s.accelBias = r.AccelBias
	if r.AccelScale[0] > 0 && r.AccelScale[1] > 0 && r.AccelScale[2] > 0 {
		s.accelDiv = r.AccelScale
	}
}

// ToAxis3f widens raw counts to float.
func ToAxis3f(raw imu.Axis3i16) imu.Axis3f {
	return imu.Axis3f{float32(raw.X), float32(raw.Y), float32(raw.Z)}
}

// Accel returns the specific force in g.
func (s *Scaler) Accel(raw imu.Axis3i16) imu.Axis3f {
	v := imu.Sub(ToAxis3f(raw), s.accelBias)
	return imu.Axis3f{v[0] / s.accelDiv[0], v[1] / s.accelDiv[1], v[2] / s.accelDiv[2]}
}

// Gyro returns the body rate in rad/s.
func (s *Scaler) Gyro(raw imu.Axis3i16) imu.Axis3f {
	return imu.Scale(imu.Sub(ToAxis3f(raw), s.gyroBias), degToRad/s.gyroLSB)
}

// AccelCounts is the uncalibrated inverse of Accel, saturating at int16.
func (s *Scaler) AccelCounts(g imu.Axis3f) imu.Axis3i16 {
	return toCounts(imu.Scale(g, s.accelLSB))
}

// GyroCounts is the uncalibrated inverse of Gyro, saturating at int16.
func (s *Scaler) GyroCounts(w imu.Axis3f) imu.Axis3i16 {
	return toCounts(imu.Scale(w, radToDeg*s.gyroLSB))
}

func toCounts(v imu.Axis3f) imu.Axis3i16 {
	return imu.Axis3i16{X: toCount(v[0]), Y: toCount(v[1]), Z: toCount(v[2])}
}

func toCount(f float32) int16 {
	r := math.Round(float64(f))
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}
