// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "time"

// IMURaw represents a single raw IMU sample, in sensor counts.
type IMURaw struct {
	Source string    `json:"source"` // "left" or "right"
	Accel  Axis3i16  `json:"accel"`
	Gyro   Axis3i16  `json:"gyro"`
	Mag    Axis3i16  `json:"mag"` // zero when the magnetometer is unavailable
	Time   time.Time `json:"time"`
}

// IMURawReader is anything that can produce raw samples.
type IMURawReader interface {
	ReadRaw() (IMURaw, error)
}
