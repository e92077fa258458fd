// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/chewxy/math32"

	"github.com/relabs-tech/strapdown/internal/imu"
)

// Pose is the human-readable attitude, in degrees.
// Angles are ZYX Tait-Bryan: yaw about world z, then pitch, then roll.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Attitude is what the producer publishes for every estimator update.
type Attitude struct {
	Source     string     `json:"source"`
	Quat       imu.Quatf  `json:"quat"` // body to world
	Pose       Pose       `json:"pose"`
	WorldAccel imu.Axis3f `json:"world_accel"` // g, gravity removed
	Time       time.Time  `json:"time"`
}

// Source is anything that can provide attitudes over time.
type Source interface {
	Next() (Attitude, error)
}

// up is the world z axis; a resting accelerometer reads +1 g along it.
var up = imu.Axis3f{0, 0, 1}

const radToDeg = float32(180 / math.Pi)

// NewAttitude fills in the derived fields for q. bodyAccel is in g.
func NewAttitude(source string, q imu.Quatf, bodyAccel imu.Axis3f, t time.Time) Attitude {
	return Attitude{
		Source:     source,
		Quat:       q,
		Pose:       PoseFromQuat(q),
		WorldAccel: WorldAccel(q, bodyAccel),
		Time:       t,
	}
}

// WorldAccel rotates a body-frame specific force (in g) into the world
// frame and removes gravity, leaving the linear acceleration.
func WorldAccel(q imu.Quatf, bodyAccel imu.Axis3f) imu.Axis3f {
	return imu.Sub(imu.Transform(q, bodyAccel), up)
}

// PoseFromQuat converts a unit body-to-world quaternion to Euler angles.
func PoseFromQuat(q imu.Quatf) Pose {
	a, b, c, d := q.A, q.B, q.C, q.D

	roll := math32.Atan2(2*(a*b+c*d), 1-2*(b*b+c*c))

	s := 2 * (a*c - d*b)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	pitch := math32.Asin(s)

	yaw := math32.Atan2(2*(a*d+b*c), 1-2*(c*c+d*d))

	return Pose{
		Roll:  float64(roll * radToDeg),
		Pitch: float64(pitch * radToDeg),
		Yaw:   float64(yaw * radToDeg),
	}
}

// QuatFromPose is the inverse of PoseFromQuat.
func QuatFromPose(p Pose) imu.Quatf {
	hr := float32(p.Roll) / radToDeg / 2
	hp := float32(p.Pitch) / radToDeg / 2
	hy := float32(p.Yaw) / radToDeg / 2

	cr, sr := math32.Cos(hr), math32.Sin(hr)
	cp, sp := math32.Cos(hp), math32.Sin(hp)
	cy, sy := math32.Cos(hy), math32.Sin(hy)

	return imu.Quatf{
		A: cr*cp*cy + sr*sp*sy,
		B: sr*cp*cy - cr*sp*sy,
		C: cr*sp*cy + sr*cp*sy,
		D: cr*cp*sy - sr*sp*cy,
	}
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is unobservable from gravity and is set to 0.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
		Yaw:   0,
	}
}
