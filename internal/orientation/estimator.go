// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"github.com/relabs-tech/strapdown/internal/imu"
)

// Estimator is a Mahony complementary filter. It integrates body rates and
// pulls the attitude towards the gravity direction measured by the
// accelerometer with a PI loop (gains Kp, Ki).
//
// The estimate is a body-to-world quaternion. Yaw is only gyro-integrated
// and drifts.
type Estimator struct {
	kp, ki   float32
	q        imu.Quatf
	integral imu.Axis3f // rad/s
}

// NewEstimator returns an estimator at the identity attitude.
func NewEstimator(kp, ki float32) *Estimator {
	return &Estimator{kp: kp, ki: ki, q: imu.QuatIdentity}
}

// Reset returns to the identity attitude and clears the integral term.
func (e *Estimator) Reset() {
	e.q = imu.QuatIdentity
	e.integral = imu.Axis3f{}
}

// SetQuat overrides the current estimate.
func (e *Estimator) SetQuat(q imu.Quatf) {
	e.q = imu.QuatNormalize(q)
}

// Quat returns the current body-to-world estimate.
func (e *Estimator) Quat() imu.Quatf {
	return e.q
}

// Bias returns the gyro bias compensation learned by the integral term.
func (e *Estimator) Bias() imu.Axis3f {
	return e.integral
}

// Update advances the estimate by dt seconds. gyro is in rad/s, accel in
// any unit; a zero accel skips the correction. dt <= 0 is ignored.
func (e *Estimator) Update(gyro, accel imu.Axis3f, dt float32) imu.Quatf {
	if dt <= 0 {
		return e.q
	}

	if n := imu.Length(accel); n > 0 {
		a := imu.Scale(accel, 1/n)
		// Gravity as the current estimate expects to see it.
		v := imu.InverseTransform(e.q, up)
		err := imu.Cross(a, v)

		if e.ki > 0 {
			e.integral = imu.Add(e.integral, imu.Scale(err, e.ki*dt))
		}
		gyro = imu.Add(gyro, imu.Add(imu.Scale(err, e.kp), e.integral))
	}

	// q̇ = ½ q ⊗ (0, ω)
	qdot := imu.QuatScale(imu.HamiltonProduct(e.q, imu.FromVector(gyro)), 0.5)
	e.q = imu.QuatNormalize(imu.QuatAdd(e.q, imu.QuatScale(qdot, dt)))
	return e.q
}
