// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"os"
	"time"

	"github.com/relabs-tech/strapdown/internal/orientation"
)

// RunMockConsole prints the synthetic attitude without MQTT or hardware.
func RunMockConsole() error {
	src := orientation.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		att, err := src.Next()
		if err != nil {
			return err
		}
		printAttitude(os.Stdout, att)
	}
	return nil
}
