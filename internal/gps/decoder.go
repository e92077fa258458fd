// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"fmt"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Decoder folds a stream of NMEA sentences into fixes.
// The zero value is ready to use.
type Decoder struct {
	current Fix
}

// Feed consumes one line. It returns the merged fix and true when the line is
// an RMC sentence; every other input, including garbage, returns false.
func (d *Decoder) Feed(line string) (Fix, bool) {
	line = strings.TrimSpace(line)

	// NMEA sentences start with '$'
	if line == "" || !strings.HasPrefix(line, "$") {
		return Fix{}, false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// noisy GPS or partial sentences
		return Fix{}, false
	}

	switch sentence.DataType() {
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		d.current.FixQuality = m.FixQuality
		d.current.Satellites = m.NumSatellites
		d.current.HDOP = m.HDOP
		d.current.AltitudeM = m.Altitude

	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		d.current.Time = formatTime(m.Time)
		d.current.Date = formatDate(m.Date)
		d.current.Latitude = m.Latitude
		d.current.Longitude = m.Longitude
		d.current.SpeedKnots = m.Speed
		d.current.CourseDeg = m.Course
		d.current.Validity = m.Validity
		return d.current, true
	}

	return Fix{}, false
}

func formatTime(t nmea.Time) string {
	if !t.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func formatDate(d nmea.Date) string {
	if !d.Valid {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", 2000+d.YY, d.MM, d.DD)
}
