// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/strapdown/internal/calib"
	"github.com/relabs-tech/strapdown/internal/imu"
	"github.com/relabs-tech/strapdown/internal/orientation"
)

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestScaler(t *testing.T) {
	s, err := NewScaler(0, 0)
	if err != nil {
		t.Fatalf("NewScaler: %v", err)
	}
	if a := s.Accel(imu.Axis3i16{X: -8192, Z: 16384}); a != (imu.Axis3f{-0.5, 0, 1}) {
		t.Fatalf("Accel\nhave %v\nwant [-0.5 0 1]", a)
	}
	g := s.Gyro(imu.Axis3i16{Z: 131})
	if g[0] != 0 || g[1] != 0 || !near(g[2], math.Pi/180, 1e-7) {
		t.Fatalf("Gyro\nhave %v\nwant [0 0 %v]", g, math.Pi/180)
	}

	s, err = NewScaler(3, 3)
	if err != nil {
		t.Fatalf("NewScaler: %v", err)
	}
	if a := s.Accel(imu.Axis3i16{Z: 2048}); a != (imu.Axis3f{0, 0, 1}) {
		t.Fatalf("Accel ±16g\nhave %v\nwant [0 0 1]", a)
	}

	if _, err := NewScaler(4, 0); err == nil {
		t.Fatal("NewScaler accepted accel range 4")
	}
	if _, err := NewScaler(0, 9); err == nil {
		t.Fatal("NewScaler accepted gyro range 9")
	}
}

func TestScalerCalibrate(t *testing.T) {
	s, _ := NewScaler(1, 1)
	s.Calibrate(&calib.Result{
		GyroBias:   imu.Axis3f{10, -4, 2},
		AccelBias:  imu.Axis3f{100, -100, 50},
		AccelScale: imu.Axis3f{8000, 8100, 8200},
	})
	if g := s.Gyro(imu.Axis3i16{X: 10, Y: -4, Z: 2}); g != (imu.Axis3f{}) {
		t.Fatalf("Gyro at bias\nhave %v\nwant zero", g)
	}
	if a := s.Accel(imu.Axis3i16{X: 8100, Y: -100, Z: 50}); a != (imu.Axis3f{1, 0, 0}) {
		t.Fatalf("calibrated Accel\nhave %v\nwant [1 0 0]", a)
	}

	// Incomplete scale keeps the datasheet sensitivity.
	s, _ = NewScaler(1, 1)
	s.Calibrate(&calib.Result{AccelScale: imu.Axis3f{8000, 0, 8200}})
	if a := s.Accel(imu.Axis3i16{Y: 8192}); a != (imu.Axis3f{0, 1, 0}) {
		t.Fatalf("Accel with partial scale\nhave %v\nwant [0 1 0]", a)
	}
}

func TestScalerCounts(t *testing.T) {
	s, _ := NewScaler(0, 0)
	g := imu.Axis3f{0.25, -0.5, 1}
	if c := s.AccelCounts(g); c != (imu.Axis3i16{X: 4096, Y: -8192, Z: 16384}) {
		t.Fatalf("AccelCounts\nhave %+v", c)
	}
	if c := s.AccelCounts(imu.Axis3f{3, -3, 0}); c != (imu.Axis3i16{X: math.MaxInt16, Y: math.MinInt16}) {
		t.Fatalf("AccelCounts saturation\nhave %+v", c)
	}
	w := imu.Axis3f{0.1, -0.2, 0.3}
	if back := s.Gyro(s.GyroCounts(w)); !near(back[0], w[0], 1e-3) || !near(back[1], w[1], 1e-3) || !near(back[2], w[2], 1e-3) {
		t.Fatalf("Gyro(GyroCounts(%v))\nhave %v", w, back)
	}
}

func TestSampleFromEnv(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := physic.Env{
		Temperature: physic.ZeroCelsius + 25*physic.Kelvin,
		Pressure:    101325 * physic.Pascal,
	}
	s := SampleFromEnv("left", e, now)
	if s.Source != "left" || s.Temperature != 25 || s.Pressure != 101325 || s.PressureHPa != 1013.25 {
		t.Fatalf("SampleFromEnv\nhave %+v", s)
	}
}

func TestMockIMUTracksScript(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := t0
	clock := func() time.Time { return now }

	src, err := newMockIMUSource("left", 0, 0, clock)
	if err != nil {
		t.Fatalf("newMockIMUSource: %v", err)
	}
	scaler, _ := NewScaler(0, 0)
	fused := orientation.NewFusedSource(src, scaler, orientation.NewEstimator(0.5, 0))

	var att orientation.Attitude
	for i := 0; i <= 1000; i++ {
		now = t0.Add(time.Duration(i) * 10 * time.Millisecond)
		if att, err = fused.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}

	want := orientation.MockPose(10)
	have := att.Pose
	yawErr := math.Mod(have.Yaw-want.Yaw+540, 360) - 180
	if math.Abs(have.Roll-want.Roll) > 1 || math.Abs(have.Pitch-want.Pitch) > 1 || math.Abs(yawErr) > 1 {
		t.Fatalf("estimate after 10s of mock motion\nhave %+v\nwant %+v", have, want)
	}
}
