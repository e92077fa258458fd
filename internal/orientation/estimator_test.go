// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/strapdown/internal/imu"
)

func TestEstimatorAtRest(t *testing.T) {
	e := NewEstimator(1, 0.1)
	for i := 0; i < 1000; i++ {
		e.Update(imu.Axis3f{}, up, 0.01)
	}
	if q := e.Quat(); q != imu.QuatIdentity {
		t.Fatalf("level and still\nhave %v\nwant %v", q, imu.QuatIdentity)
	}
}

func TestEstimatorIgnoresBadStep(t *testing.T) {
	e := NewEstimator(1, 0)
	before := e.Quat()
	e.Update(imu.Axis3f{1, 2, 3}, up, 0)
	e.Update(imu.Axis3f{1, 2, 3}, up, -0.1)
	if q := e.Quat(); q != before {
		t.Fatalf("dt <= 0 changed the estimate\nhave %v\nwant %v", q, before)
	}
}

func TestEstimatorGyroIntegration(t *testing.T) {
	e := NewEstimator(0, 0)
	rate := imu.Axis3f{0, 0, math.Pi / 2}
	for i := 0; i < 1000; i++ {
		e.Update(rate, imu.Axis3f{}, 0.001)
	}
	if v := imu.Transform(e.Quat(), imu.Axis3f{1, 0, 0}); !nearAxis(v, imu.Axis3f{0, 1, 0}, 1e-3) {
		t.Fatalf("90° yaw rotation of x\nhave %v\nwant [0 1 0]", v)
	}
	if p := PoseFromQuat(e.Quat()); !nearPose(p, Pose{Yaw: 90}, 0.1) {
		t.Fatalf("pose after 90° yaw\nhave %+v\nwant yaw 90", p)
	}
}

func TestEstimatorConvergesToGravity(t *testing.T) {
	truth := QuatFromPose(Pose{Roll: 30, Pitch: -20, Yaw: 0})
	accel := imu.Scale(imu.InverseTransform(truth, up), 9.81)

	e := NewEstimator(2, 0)
	for i := 0; i < 3000; i++ {
		e.Update(imu.Axis3f{}, accel, 0.01)
	}
	p := PoseFromQuat(e.Quat())
	if !nearDeg(p.Roll, 30, 0.5) || !nearDeg(p.Pitch, -20, 0.5) {
		t.Fatalf("converged pose\nhave %+v\nwant roll 30 pitch -20", p)
	}
	if g := imu.Transform(e.Quat(), imu.Scale(accel, 1/imu.Length(accel))); !nearAxis(g, up, 1e-2) {
		t.Fatalf("measured gravity in world frame\nhave %v\nwant %v", g, up)
	}
}

func TestEstimatorRejectsGyroBias(t *testing.T) {
	bias := imu.Axis3f{0.02, 0, 0}
	run := func(kp, ki float32) Pose {
		e := NewEstimator(kp, ki)
		for i := 0; i < 6000; i++ {
			e.Update(bias, up, 0.01)
		}
		return PoseFromQuat(e.Quat())
	}

	// Proportional only settles at bias/Kp.
	if p := run(1, 0); math.Abs(p.Roll) < 0.5 {
		t.Fatalf("Kp only roll\nhave %v\nwant a visible offset", p.Roll)
	}
	if p := run(1, 0.1); math.Abs(p.Roll) > 0.5 {
		t.Fatalf("Kp+Ki roll\nhave %v\nwant ~0", p.Roll)
	}
}

type fakeReader struct {
	samples []imu.IMURaw
	i       int
}

func (r *fakeReader) ReadRaw() (imu.IMURaw, error) {
	if r.i >= len(r.samples) {
		return imu.IMURaw{}, errors.New("no more samples")
	}
	s := r.samples[r.i]
	r.i++
	return s, nil
}

// unitConverter treats counts as g and thousandths of rad/s.
type unitConverter struct{}

func (unitConverter) Accel(raw imu.Axis3i16) imu.Axis3f {
	return imu.Axis3f{float32(raw.X), float32(raw.Y), float32(raw.Z)}
}

func (unitConverter) Gyro(raw imu.Axis3i16) imu.Axis3f {
	return imu.Scale(imu.Axis3f{float32(raw.X), float32(raw.Y), float32(raw.Z)}, 1e-3)
}

func TestFusedSource(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var samples []imu.IMURaw
	for i := 0; i <= 100; i++ {
		samples = append(samples, imu.IMURaw{
			Source: "left",
			Accel:  imu.Axis3i16{Z: 1},
			Gyro:   imu.Axis3i16{Z: 1571}, // π/2 rad/s
			Time:   t0.Add(time.Duration(i) * 10 * time.Millisecond),
		})
	}
	src := NewFusedSource(&fakeReader{samples: samples}, unitConverter{}, NewEstimator(0.5, 0))

	var att Attitude
	var err error
	for range samples {
		if att, err = src.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if !nearPose(att.Pose, Pose{Yaw: 90}, 0.5) {
		t.Fatalf("fused pose after 1s at 90°/s\nhave %+v\nwant yaw 90", att.Pose)
	}
	if att.Source != "left" || !att.Time.Equal(samples[100].Time) {
		t.Fatalf("fused attitude metadata\nhave %q %v", att.Source, att.Time)
	}
	if !src.LastRaw().Time.Equal(samples[100].Time) {
		t.Fatalf("LastRaw\nhave %v\nwant %v", src.LastRaw().Time, samples[100].Time)
	}
	if _, err := src.Next(); err == nil {
		t.Fatal("Next after exhausted reader succeeded, want error")
	}
}

func TestFusedSourceSeedsTilt(t *testing.T) {
	src := NewFusedSource(&fakeReader{samples: []imu.IMURaw{{Accel: imu.Axis3i16{Y: 1, Z: 1}}}}, unitConverter{}, NewEstimator(1, 0))
	att, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !nearPose(att.Pose, Pose{Roll: 45}, 1e-2) {
		t.Fatalf("seeded pose\nhave %+v\nwant roll 45", att.Pose)
	}
}
