// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"time"

	"github.com/relabs-tech/strapdown/internal/imu"
	"github.com/relabs-tech/strapdown/internal/orientation"
)

// mockIMUSource synthesizes raw counts for a body following
// orientation.MockPose while otherwise at rest.
type mockIMUSource struct {
	name   string
	scaler *Scaler
	start  time.Time
	now    func() time.Time

	prevQ imu.Quatf
	prevT time.Time
}

// NewMockIMUSource returns a raw reader that needs no hardware.
func NewMockIMUSource(name string, accelRange, gyroRange byte) (imu.IMURawReader, error) {
	return newMockIMUSource(name, accelRange, gyroRange, time.Now)
}

func newMockIMUSource(name string, accelRange, gyroRange byte, now func() time.Time) (*mockIMUSource, error) {
	s, err := NewScaler(accelRange, gyroRange)
	if err != nil {
		return nil, err
	}
	return &mockIMUSource{name: name, scaler: s, start: now(), now: now}, nil
}

func (m *mockIMUSource) ReadRaw() (imu.IMURaw, error) {
	t := m.now()
	q := orientation.QuatFromPose(orientation.MockPose(t.Sub(m.start).Seconds()))

	var rate imu.Axis3f
	if !m.prevT.IsZero() {
		if dt := float32(t.Sub(m.prevT).Seconds()); dt > 0 {
			// Body rate from the step rotation q_prev* ⊗ q.
			dq := imu.HamiltonProduct(imu.Conjugate(m.prevQ), q)
			if dq.A < 0 {
				dq = imu.QuatScale(dq, -1)
			}
			rate = imu.Scale(imu.ToVector(dq), 2/dt)
		}
	}
	m.prevQ, m.prevT = q, t

	gravity := imu.InverseTransform(q, imu.Axis3f{0, 0, 1})
	return imu.IMURaw{
		Source: m.name,
		Accel:  m.scaler.AccelCounts(gravity),
		Gyro:   m.scaler.GyroCounts(rate),
		Time:   t,
	}, nil
}
