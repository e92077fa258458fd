// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDGPS      string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicIMU      string
	TopicAttitude string
	TopicPose     string
	TopicEnv      string
	TopicGPS      string

	// IMU Hardware
	IMUName      string // "left" or "right", used as the sample source tag
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// BMP Hardware (empty disables the env reading)
	BMPSPIDevice string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Timing
	IMUSampleInterval  int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort int
	WebStaticDir  string

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds

	// Attitude estimator gains
	FusionKp float32
	FusionKi float32

	// Calibration file written by cmd/calibration (optional)
	CalibrationFile string

	// Synthesize IMU samples instead of opening the SPI device
	UseMockSource bool
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal idempotent.
//   - configMu guards globalConfig; Get takes the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a Config with every optional value filled in.
func Default() *Config {
	return &Config{
		MQTTClientIDProducer: "strapdown-producer",
		MQTTClientIDGPS:      "strapdown-gps-producer",
		MQTTClientIDConsole:  "strapdown-console",
		MQTTClientIDWeb:      "strapdown-web",
		MQTTClientIDDisplay:  "strapdown-display",

		TopicIMU:      "inertial/imu",
		TopicAttitude: "inertial/attitude",
		TopicPose:     "inertial/pose",
		TopicEnv:      "inertial/env",
		TopicGPS:      "inertial/gps",

		IMUName: "left",

		GPSBaudRate: 9600,

		IMUSampleInterval:  10,
		ConsoleLogInterval: 1000,

		WebServerPort: 8080,
		WebStaticDir:  "web",

		DisplayI2CBus:         "",
		DisplayUpdateInterval: 200,

		FusionKp: 0.8,
		FusionKi: 0.002,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_ATTITUDE":
		c.TopicAttitude = value
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_ENV":
		c.TopicEnv = value
	case "TOPIC_GPS":
		c.TopicGPS = value

	// IMU Hardware
	case "IMU_NAME":
		if value != "left" && value != "right" {
			return fmt.Errorf("IMU_NAME must be left or right, got %q", value)
		}
		c.IMUName = value
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseCode(key, value, 3, "0=±2g, 1=±4g, 2=±8g, 3=±16g")
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseCode(key, value, 3, "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s")

	// BMP Hardware
	case "BMP_SPI_DEVICE":
		c.BMPSPIDevice = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		c.GPSBaudRate, err = parsePositive(key, value)

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parsePositive(key, value)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parsePositive(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parsePositive(key, value)
		if err == nil && c.WebServerPort > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
		}
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parsePositive(key, value)

	// Estimator
	case "FUSION_KP":
		c.FusionKp, err = parseGain(key, value)
	case "FUSION_KI":
		c.FusionKi, err = parseGain(key, value)

	case "CALIBRATION_FILE":
		c.CalibrationFile = value

	case "USE_MOCK_SOURCE":
		c.UseMockSource, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid USE_MOCK_SOURCE %q: %w", value, err)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseCode(key, value string, max int, legend string) (byte, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("%s must be 0-%d (%s), got %d", key, max, legend, v)
	}
	return byte(v), nil
}

func parsePositive(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func parseGain(key, value string) (float32, error) {
	v, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite, got %v", key, v)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", key, v)
	}
	return float32(v), nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if !c.UseMockSource {
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required unless USE_MOCK_SOURCE=true")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required unless USE_MOCK_SOURCE=true")
		}
	}
	return nil
}

// SampleRateHz returns the estimator update rate implied by IMU_SAMPLE_INTERVAL.
func (c *Config) SampleRateHz() float64 {
	return 1000 / float64(c.IMUSampleInterval)
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads anything; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
