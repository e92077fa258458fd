// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "strapdown_config.txt"))
	if err != nil {
		t.Fatalf("Load sample config: %v", err)
	}
	if cfg.MQTTBroker != "tcp://localhost:1883" {
		t.Fatalf("MQTTBroker\nhave %q\nwant tcp://localhost:1883", cfg.MQTTBroker)
	}
	if cfg.IMUAccelRange != 1 || cfg.IMUGyroRange != 1 {
		t.Fatalf("ranges\nhave %d %d\nwant 1 1", cfg.IMUAccelRange, cfg.IMUGyroRange)
	}
	if cfg.FusionKp != 0.8 || cfg.FusionKi != 0.002 {
		t.Fatalf("gains\nhave %v %v\nwant 0.8 0.002", cfg.FusionKp, cfg.FusionKi)
	}
	if hz := cfg.SampleRateHz(); hz != 100 {
		t.Fatalf("SampleRateHz\nhave %v\nwant 100", hz)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# minimal\n\nMQTT_BROKER = tcp://broker:1883\nUSE_MOCK_SOURCE=true\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.TopicAttitude != def.TopicAttitude || cfg.IMUSampleInterval != def.IMUSampleInterval {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Fatalf("MQTTBroker not trimmed: %q", cfg.MQTTBroker)
	}
	if !cfg.UseMockSource {
		t.Fatal("UseMockSource\nhave false\nwant true")
	}
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		want string
	}{
		{"missing file", "", "failed to open"},
		{"no equals", "MQTT_BROKER tcp://x\n", "invalid config line 1"},
		{"unknown key", "MQTT_BROKER=tcp://x\nFOO=1\n", "unknown config key"},
		{"range", "MQTT_BROKER=tcp://x\nUSE_MOCK_SOURCE=true\nIMU_ACCEL_RANGE=4\n", "IMU_ACCEL_RANGE must be 0-3"},
		{"not a number", "IMU_GYRO_RANGE=two\n", "invalid IMU_GYRO_RANGE"},
		{"negative gain", "FUSION_KP=-1\n", "FUSION_KP must not be negative"},
		{"nan gain", "FUSION_KP=NaN\n", "FUSION_KP must be finite"},
		{"infinite gain", "FUSION_KI=+Inf\n", "FUSION_KI must be finite"},
		{"zero interval", "IMU_SAMPLE_INTERVAL=0\n", "IMU_SAMPLE_INTERVAL must be positive"},
		{"bad imu name", "IMU_NAME=center\n", "IMU_NAME must be left or right"},
		{"no broker", "USE_MOCK_SOURCE=true\n", "MQTT_BROKER is required"},
		{"no spi", "MQTT_BROKER=tcp://x\n", "IMU_SPI_DEVICE is required"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "absent.txt")
			if tc.body != "" {
				path = writeConfig(t, tc.body)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatalf("Load succeeded, want error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load error\nhave %v\nwant containing %q", err, tc.want)
			}
		})
	}
}
