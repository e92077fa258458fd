// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/relabs-tech/strapdown/internal/imu"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock orientation source that
// generates smooth changing values.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), now: time.Now}
}

// MockPose is the scripted motion of the mock sources at elapsed seconds.
func MockPose(elapsed float64) Pose {
	return Pose{
		Roll:  20 * math.Sin(elapsed),
		Pitch: 15 * math.Cos(elapsed*0.7),
		Yaw:   math.Mod(elapsed*30, 360),
	}
}

func (m *mockSource) Next() (Attitude, error) {
	t := m.now()
	q := QuatFromPose(MockPose(t.Sub(m.start).Seconds()))
	// A body at rest only feels gravity.
	return NewAttitude("mock", q, imu.InverseTransform(q, up), t), nil
}
