// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/relabs-tech/strapdown/internal/calib"
	"github.com/relabs-tech/strapdown/internal/config"
	"github.com/relabs-tech/strapdown/internal/env"
	"github.com/relabs-tech/strapdown/internal/orientation"
	"github.com/relabs-tech/strapdown/internal/sensors"
)

type envReader interface {
	Read() (env.Sample, error)
}

// producer publishes one estimator step per tick.
type producer struct {
	cfg *config.Config
	src *orientation.FusedSource
	env envReader // nil without a BMP
	pub publisher

	logEvery time.Duration
	lastLog  time.Time
}

func (p *producer) tick(t time.Time) error {
	att, err := p.src.Next()
	if err != nil {
		return err
	}
	raw := p.src.LastRaw()

	if err := p.pub.Publish(p.cfg.TopicIMU, raw); err != nil {
		log.Printf("producer: %v", err)
	}
	if err := p.pub.Publish(p.cfg.TopicAttitude, att); err != nil {
		log.Printf("producer: %v", err)
	}
	if err := p.pub.Publish(p.cfg.TopicPose, att.Pose); err != nil {
		log.Printf("producer: %v", err)
	}

	if p.env != nil {
		if s, err := p.env.Read(); err != nil {
			log.Printf("producer: env read error: %v", err)
		} else if err := p.pub.Publish(p.cfg.TopicEnv, s); err != nil {
			log.Printf("producer: %v", err)
		}
	}

	if t.Sub(p.lastLog) >= p.logEvery {
		p.lastLog = t
		q := att.Quat
		log.Printf("%s tick: pose R=%.2f P=%.2f Y=%.2f | q=(%.4f %.4f %.4f %.4f) | accel ax=%d ay=%d az=%d | gyro gx=%d gy=%d gz=%d",
			t.Format(time.RFC3339),
			att.Pose.Roll, att.Pose.Pitch, att.Pose.Yaw,
			q.A, q.B, q.C, q.D,
			raw.Accel.X, raw.Accel.Y, raw.Accel.Z,
			raw.Gyro.X, raw.Gyro.Y, raw.Gyro.Z,
		)
	}
	return nil
}

// newFusedSourceFromConfig wires the IMU, scaler, optional calibration and
// estimator named in cfg.
func newFusedSourceFromConfig(cfg *config.Config) (*orientation.FusedSource, error) {
	reader, err := sensors.NewIMUSourceFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	scaler, err := sensors.NewScaler(cfg.IMUAccelRange, cfg.IMUGyroRange)
	if err != nil {
		return nil, err
	}

	if cfg.CalibrationFile != "" {
		res, err := calib.Load(cfg.CalibrationFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("Warning: %s not found, running uncalibrated (see cmd/calibration)", cfg.CalibrationFile)
		case err != nil:
			return nil, err
		default:
			if err := applyCalibration(cfg, scaler, res); err != nil {
				return nil, err
			}
		}
	}

	est := orientation.NewEstimator(cfg.FusionKp, cfg.FusionKi)
	return orientation.NewFusedSource(reader, scaler, est), nil
}

// applyCalibration refuses a file captured at other ranges: its counts would
// misscale every sample.
func applyCalibration(cfg *config.Config, scaler *sensors.Scaler, res *calib.Result) error {
	if err := res.CheckRanges(cfg.IMUAccelRange, cfg.IMUGyroRange); err != nil {
		return fmt.Errorf("%s: %w (rerun cmd/calibration)", cfg.CalibrationFile, err)
	}
	if res.IMU != "" && res.IMU != cfg.IMUName {
		log.Printf("Warning: calibration file is for the %s IMU, applying it to %s", res.IMU, cfg.IMUName)
	}
	scaler.Calibrate(res)
	log.Printf("applied calibration from %s (%s, confidence %.2f)",
		cfg.CalibrationFile, res.CalibrationAt.Format(time.RFC3339), res.Confidence.Overall)
	return nil
}

// RunProducer samples the IMU at IMU_SAMPLE_INTERVAL, runs the attitude
// estimator and publishes raw samples, attitude, pose and env readings.
func RunProducer() error {
	log.Println("starting strapdown attitude/env producer")

	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("producer: config not initialized")
	}

	src, err := newFusedSourceFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("producer: %w", err)
	}

	p := &producer{
		cfg:      cfg,
		src:      src,
		logEvery: time.Duration(cfg.ConsoleLogInterval) * time.Millisecond,
	}

	if cfg.BMPSPIDevice != "" && !cfg.UseMockSource {
		envSrc, err := sensors.NewEnvSource(cfg.IMUName, cfg.BMPSPIDevice)
		if err != nil {
			log.Printf("Warning: %v (env readings disabled)", err)
		} else {
			defer envSrc.Close()
			p.env = envSrc
		}
	}

	client, err := connectMQTT("producer", cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	p.pub = mqttPublisher{client: client}

	log.Printf("producer: publishing at %.0f Hz (Kp=%.3f Ki=%.4f)", cfg.SampleRateHz(), cfg.FusionKp, cfg.FusionKi)

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		if err := p.tick(t); err != nil {
			log.Printf("producer: %v", err)
		}
	}
	return nil
}
