// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

import (
	"math"
	"time"
)

// Sample represents a single environmental measurement (BMP).
type Sample struct {
	Source      string    `json:"source"`       // "left" or "right"
	Temperature float64   `json:"temp_c"`       // °C
	Pressure    float64   `json:"pressure_pa"`  // Pa
	PressureHPa float64   `json:"pressure_hpa"` // hPa (= mbar)
	Time        time.Time `json:"time"`
}

// standard atmosphere
const (
	seaLevelPa = 101325.0
	lapseRate  = 0.0065 // K/m
	seaLevelK  = 288.15
	exponent   = 0.190263
)

// AltitudeM returns the barometric altitude for the standard atmosphere.
func (s Sample) AltitudeM() float64 {
	if s.Pressure <= 0 {
		return 0
	}
	return seaLevelK / lapseRate * (1 - math.Pow(s.Pressure/seaLevelPa, exponent))
}
