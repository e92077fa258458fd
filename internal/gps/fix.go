// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
// Position and motion come from RMC; quality fields from the latest GGA.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // e.g. "2025-12-06"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void), etc.

	FixQuality string  `json:"fix_quality"` // GGA quality: "0" invalid, "1" GPS, "2" DGPS...
	Satellites int64   `json:"satellites"`  // satellites in use
	HDOP       float64 `json:"hdop"`
	AltitudeM  float64 `json:"alt_m"` // above mean sea level
}

// Valid reports whether the receiver flagged the fix as active.
func (f Fix) Valid() bool {
	return f.Validity == "A"
}
