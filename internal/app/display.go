// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/strapdown/internal/config"
	"github.com/relabs-tech/strapdown/internal/orientation"
)

const (
	displayW    = 128
	displayH    = 64
	lineSpacing = 13 // basicfont.Face7x13
)

// displayData holds the latest attitude for the render loop.
type displayData struct {
	mu   sync.RWMutex
	att  orientation.Attitude
	have bool
}

func (d *displayData) set(a orientation.Attitude) {
	d.mu.Lock()
	d.att = a
	d.have = true
	d.mu.Unlock()
}

func (d *displayData) get() (orientation.Attitude, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.att, d.have
}

// RunDisplay draws the attitude received over MQTT on an SSD1306.
func RunDisplay() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("display: config not initialized")
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus ("" picks the first one)
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderLines(splashLines), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	client, err := connectMQTT("display", cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, "display", cfg.TopicAttitude, data.set); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		att, have := data.get()
		if err := dev.Draw(dev.Bounds(), renderAttitude(att, have), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
	return nil
}

var splashLines = []string{"", "  Strapdown", "  attitude", "  waiting..."}

// renderAttitude lays out Euler angles and the quaternion on one screen.
func renderAttitude(att orientation.Attitude, have bool) *image1bit.VerticalLSB {
	if !have {
		return renderLines([]string{"", "Attitude", "Waiting..."})
	}
	q := att.Quat
	return renderLines([]string{
		fmt.Sprintf("R:%6.1f P:%6.1f", att.Pose.Roll, att.Pose.Pitch),
		fmt.Sprintf("Y:%6.1f", att.Pose.Yaw),
		fmt.Sprintf("q %+.3f %+.3f", q.A, q.B),
		fmt.Sprintf("  %+.3f %+.3f", q.C, q.D),
	})
}

// renderLines draws up to four lines of 7x13 text.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		drawer.Dot = fixed.P(0, lineSpacing*(i+1))
		drawer.DrawString(line)
	}
	return img
}
