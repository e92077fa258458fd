// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/strapdown/internal/config"
	"github.com/relabs-tech/strapdown/internal/env"
	"github.com/relabs-tech/strapdown/internal/gps"
	"github.com/relabs-tech/strapdown/internal/imu"
	"github.com/relabs-tech/strapdown/internal/orientation"
)

func printAttitude(w io.Writer, a orientation.Attitude) {
	fmt.Fprintf(w,
		"[ATT ]  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f  q=(%7.4f %7.4f %7.4f %7.4f)  lin=(%6.3f %6.3f %6.3f)g\n",
		a.Pose.Roll, a.Pose.Pitch, a.Pose.Yaw,
		a.Quat.A, a.Quat.B, a.Quat.C, a.Quat.D,
		a.WorldAccel.X(), a.WorldAccel.Y(), a.WorldAccel.Z(),
	)
}

func printRaw(w io.Writer, s imu.IMURaw) {
	fmt.Fprintf(w,
		"[IMU ]  %-5s ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d\n",
		s.Source, s.Accel.X, s.Accel.Y, s.Accel.Z, s.Gyro.X, s.Gyro.Y, s.Gyro.Z,
	)
}

func printEnv(w io.Writer, s env.Sample) {
	fmt.Fprintf(w,
		"[ENV ]  %-5s T=%6.2f°C  P=%8.2fhPa  alt=%7.1fm\n",
		s.Source, s.Temperature, s.PressureHPa, s.AltitudeM(),
	)
}

func printFix(w io.Writer, f gps.Fix) {
	fmt.Fprintf(w,
		"[GPS ]  time=%s date=%s lat=%.6f lon=%.6f alt=%.1fm speed=%.1fkn course=%.1f° sats=%d hdop=%.1f validity=%s\n",
		f.Time, f.Date, f.Latitude, f.Longitude, f.AltitudeM, f.SpeedKnots, f.CourseDeg, f.Satellites, f.HDOP, f.Validity,
	)
}

// RunConsoleMQTT prints every attitude, raw IMU, env and GPS message until
// interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("console: config not initialized")
	}

	client, err := connectMQTT("console", cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	out := os.Stdout
	if err := subscribeJSON(client, "console", cfg.TopicAttitude, func(a orientation.Attitude) { printAttitude(out, a) }); err != nil {
		return err
	}
	if err := subscribeJSON(client, "console", cfg.TopicIMU, func(s imu.IMURaw) { printRaw(out, s) }); err != nil {
		return err
	}
	if err := subscribeJSON(client, "console", cfg.TopicEnv, func(s env.Sample) { printEnv(out, s) }); err != nil {
		return err
	}
	if err := subscribeJSON(client, "console", cfg.TopicGPS, func(f gps.Fix) { printFix(out, f) }); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
