// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/strapdown/internal/env"
)

// EnvSource reads one BMP280 over SPI.
type EnvSource struct {
	name string
	port spi.PortCloser
	dev  *bmxx80.Dev
}

// NewEnvSource opens the BMP280 on spiDev.
func NewEnvSource(name, spiDev string) (*EnvSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("%s BMP SPI open (%s): %w", name, spiDev, err)
	}

	dev, err := bmxx80.NewSPI(port, &bmxx80.DefaultOpts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("%s BMP init: %w", name, err)
	}

	return &EnvSource{name: name, port: port, dev: dev}, nil
}

// Read senses temperature and pressure.
func (s *EnvSource) Read() (env.Sample, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("%s BMP sense: %w", s.name, err)
	}

	return SampleFromEnv(s.name, e, time.Now()), nil
}

// Close halts the sensor and releases the SPI port.
func (s *EnvSource) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.port.Close()
		return fmt.Errorf("%s BMP halt: %w", s.name, err)
	}
	return s.port.Close()
}

// SampleFromEnv converts a periph reading to an env.Sample.
func SampleFromEnv(name string, e physic.Env, t time.Time) env.Sample {
	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return env.Sample{
		Source:      name,
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa,
		PressureHPa: pressurePa / 100.0, // 1 hPa = 100 Pa
		Time:        t,
	}
}
