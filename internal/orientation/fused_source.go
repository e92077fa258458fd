// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"

	"github.com/relabs-tech/strapdown/internal/imu"
)

// Converter turns raw counts into physical units.
type Converter interface {
	Accel(raw imu.Axis3i16) imu.Axis3f // g
	Gyro(raw imu.Axis3i16) imu.Axis3f  // rad/s
}

// FusedSource runs the estimator over a raw IMU stream.
type FusedSource struct {
	reader  imu.IMURawReader
	conv    Converter
	est     *Estimator
	lastRaw imu.IMURaw
	started bool
}

// NewFusedSource returns a Source that reads r, converts with conv and
// feeds est. The sample timestamps drive the integration step.
func NewFusedSource(r imu.IMURawReader, conv Converter, est *Estimator) *FusedSource {
	return &FusedSource{reader: r, conv: conv, est: est}
}

// Next reads one sample and returns the updated attitude.
// The first sample seeds roll and pitch from the accelerometer.
func (s *FusedSource) Next() (Attitude, error) {
	raw, err := s.reader.ReadRaw()
	if err != nil {
		return Attitude{}, fmt.Errorf("fused source: %w", err)
	}

	accel := s.conv.Accel(raw.Accel)
	gyro := s.conv.Gyro(raw.Gyro)

	if !s.started {
		s.started = true
		tilt := ComputePoseFromAccel(float64(accel.X()), float64(accel.Y()), float64(accel.Z()))
		s.est.SetQuat(QuatFromPose(tilt))
	} else {
		dt := float32(raw.Time.Sub(s.lastRaw.Time).Seconds())
		s.est.Update(gyro, accel, dt)
	}
	s.lastRaw = raw

	return NewAttitude(raw.Source, s.est.Quat(), accel, raw.Time), nil
}

// LastRaw returns the sample consumed by the latest Next call.
func (s *FusedSource) LastRaw() imu.IMURaw {
	return s.lastRaw
}
