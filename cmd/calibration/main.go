// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Guided static calibration for the MPU-9250 named in the config file.
// Calibrates:
//  1. Gyro: static bias (device still)
//  2. Gyro: guided rotations about X, Y and Z refine the bias per axis
//  3. Accel: 6-point (±X, ±Y, ±Z) static poses to estimate bias + per-axis scale
//
// Output:
//
//	Writes a JSON file (CALIBRATION_FILE, or -out) including calibration
//	date/time and quality/confidence. The producer applies it at startup.
//
// Run:
//
//	go run ./cmd/calibration -config strapdown_config.txt
//
// Notes / assumptions:
//   - Stores calibration in RAW UNITS (counts) together with the range codes.
//     The producer refuses a file taken at other IMU_ACCEL_RANGE or
//     IMU_GYRO_RANGE settings.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/relabs-tech/strapdown/internal/calib"
	"github.com/relabs-tech/strapdown/internal/config"
	"github.com/relabs-tech/strapdown/internal/imu"
	"github.com/relabs-tech/strapdown/internal/sensors"
)

const (
	sampleHz = 100 // target loop frequency (best-effort)

	gyroStaticDuration = 10 * time.Second
	gyroRotMaxDuration = 30 * time.Second
	accelPoseDuration  = 6 * time.Second

	defaultOutput = "strapdown_calibration.json"
)

type readFunc func() (imu.IMURaw, error)

func main() {
	in := bufio.NewReader(os.Stdin)

	configPath := flag.String("config", "strapdown_config.txt", "Path to configuration file")
	outPath := flag.String("out", "", "Output file (default: CALIBRATION_FILE or "+defaultOutput+")")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		fatal(fmt.Errorf("failed to load config from %s: %w", *configPath, err))
	}
	cfg := config.Get()

	out := *outPath
	if out == "" {
		out = cfg.CalibrationFile
	}
	if out == "" {
		out = defaultOutput
	}

	fmt.Println("=== Guided Calibration (Gyro + Accel) ===")
	fmt.Printf("IMU: %s  ranges: accel code %d, gyro code %d\n", cfg.IMUName, cfg.IMUAccelRange, cfg.IMUGyroRange)
	fmt.Printf("Results will be stored in %s\n\n", out)

	reader, err := sensors.NewIMUSourceFromConfig(cfg)
	if err != nil {
		fatal(fmt.Errorf("IMU init failed: %w", err))
	}

	res := calib.Result{
		SchemaVersion: calib.SchemaVersion,
		CalibrationAt: time.Now(),
		IMU:           cfg.IMUName,
		AccelRange:    cfg.IMUAccelRange,
		GyroRange:     cfg.IMUGyroRange,
	}

	// ---------------- Gyro calibration ----------------
	fmt.Println("Step 1/3 — Gyro static bias")
	fmt.Println("Place the device on a stable surface and do not touch it.")
	waitEnter(in, "Press ENTER to start static gyro bias capture (10s)...")

	still, err := capture(reader.ReadRaw, gyroStaticDuration, nil, pickGyro)
	if err != nil {
		fatal(err)
	}
	res.GyroBiasStatic, res.Confidence.GyroStatic = calib.GyroBias(still)
	std := still.StdDev()

	fmt.Printf("Static gyro bias (counts): X=%.2f Y=%.2f Z=%.2f | stddev=%.2f %.2f %.2f | confidence=%.2f\n",
		res.GyroBiasStatic.X(), res.GyroBiasStatic.Y(), res.GyroBiasStatic.Z(), std.X(), std.Y(), std.Z(), res.Confidence.GyroStatic)

	// ---------------- Gyro guided rotations ----------------
	fmt.Println("\nStep 2/3 — Gyro guided rotations")
	fmt.Println("For each axis: rotate the device back and forth around that axis only,")
	fmt.Println("then put it back in the starting pose and press ENTER.")

	res.GyroBiasDynamic = res.GyroBiasStatic
	var rotConf [3]float64
	for axis, name := range []string{"X", "Y", "Z"} {
		waitEnter(in, fmt.Sprintf("Press ENTER to start rotating around %s...", name))
		fmt.Printf("  Rotating around %s: press ENTER when back at the start (max %s)\n", name, gyroRotMaxDuration)

		start := time.Now()
		rot, err := captureUntilEnter(in, reader.ReadRaw, gyroRotMaxDuration, pickGyro)
		if err != nil {
			fatal(err)
		}
		dur := time.Since(start)

		rotConf[axis] = calib.RotationConfidence(axis, rot, dur)
		res.GyroBiasDynamic = calib.DynamicGyroBias(axis, rot, res.GyroBiasDynamic)
		dom := calib.AxisDominance(rot.MeanAbs())
		fmt.Printf("  %s: bias=%.2f duration=%s dominance=%.2f confidence=%.2f\n",
			name, res.GyroBiasDynamic[axis], dur.Round(100*time.Millisecond), dom[axis], rotConf[axis])
	}
	res.Confidence.GyroRot = calib.RotationOverall(rotConf)
	res.GyroBias = calib.BlendGyroBias(res.GyroBiasStatic, res.GyroBiasDynamic, rotConf)

	fmt.Printf("Final gyro bias (counts): X=%.2f Y=%.2f Z=%.2f | rotation confidence=%.2f\n",
		res.GyroBias.X(), res.GyroBias.Y(), res.GyroBias.Z(), res.Confidence.GyroRot)

	// ---------------- Accel calibration (6-point) ----------------
	fmt.Println("\nStep 3/3 — Accelerometer 6-point calibration (bias + scale)")
	fmt.Println("You will place the device still in 6 orientations: +X, -X, +Y, -Y, +Z, -Z (axis UP).")
	fmt.Println("Each pose captures 6 seconds. Keep it as still as possible.")
	fmt.Println()

	var up, down [3]imu.Axis3f
	poseConf := 0.0
	for axis, name := range []string{"X", "Y", "Z"} {
		for _, sign := range []string{"+", "-"} {
			waitEnter(in, fmt.Sprintf("Place the device with %s%s pointing UP, then press ENTER...", sign, name))

			acc, err := capture(reader.ReadRaw, accelPoseDuration, nil, pickAccel)
			if err != nil {
				fatal(err)
			}
			mean := acc.Mean()
			conf := calib.StillnessConfidence(acc.StdDev())
			poseConf += conf / 6

			if sign == "+" {
				up[axis] = mean
			} else {
				down[axis] = mean
			}
			fmt.Printf("  %s%s: mean=(%.1f, %.1f, %.1f) samples=%d confidence=%.2f\n",
				sign, name, mean.X(), mean.Y(), mean.Z(), acc.Len(), conf)
		}
	}

	res.AccelBias, res.AccelScale, err = calib.SixPoint(up, down)
	if err != nil {
		fatal(err)
	}
	res.Confidence.Accel6Pt = 0.65*poseConf + 0.35*calib.GravityConsistency(res.AccelScale)

	fmt.Printf("Accel bias (counts):  X=%.2f Y=%.2f Z=%.2f\n", res.AccelBias.X(), res.AccelBias.Y(), res.AccelBias.Z())
	fmt.Printf("Accel scale (counts): X=%.2f Y=%.2f Z=%.2f | confidence=%.2f\n",
		res.AccelScale.X(), res.AccelScale.Y(), res.AccelScale.Z(), res.Confidence.Accel6Pt)

	// ---------------- Overall confidence + store ----------------
	res.Confidence.Overall = calib.Overall(res.Confidence.GyroStatic, res.Confidence.GyroRot, res.Confidence.Accel6Pt)
	if res.Confidence.GyroStatic < 0.5 {
		res.Notes = append(res.Notes, "gyro_not_still: repeat with the device on a stable surface")
	}
	if res.Confidence.GyroRot < 0.5 {
		res.Notes = append(res.Notes, "gyro_rotation_weak: rotations were short, slow or off-axis; bias is mostly static")
	}

	if err := res.Save(out); err != nil {
		fatal(err)
	}

	fmt.Println("\nCalibration complete.")
	fmt.Printf("Overall confidence: %.2f\n", res.Confidence.Overall)
	fmt.Printf("Saved to %s\n", out)
}

func pickGyro(r imu.IMURaw) imu.Axis3i16  { return r.Gyro }
func pickAccel(r imu.IMURaw) imu.Axis3i16 { return r.Accel }

// capture accumulates one sensor channel for dur at roughly sampleHz, or
// until stop is closed.
func capture(read readFunc, dur time.Duration, stop <-chan struct{}, pick func(imu.IMURaw) imu.Axis3i16) (*calib.Accumulator, error) {
	var acc calib.Accumulator
	period := time.Second / time.Duration(sampleHz)
	deadline := time.Now().Add(dur)

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return done(&acc)
		default:
		}
		r, err := read()
		if err != nil {
			return nil, err
		}
		if !acc.Add(pick(r)) {
			break
		}
		time.Sleep(period)
	}
	return done(&acc)
}

// captureUntilEnter captures until the user presses ENTER or maxDur passes.
// On timeout it still waits for ENTER so the pending read does not leak
// into the next prompt.
func captureUntilEnter(in *bufio.Reader, read readFunc, maxDur time.Duration, pick func(imu.IMURaw) imu.Axis3i16) (*calib.Accumulator, error) {
	stop := make(chan struct{})
	go func() {
		_, _ = in.ReadString('\n')
		close(stop)
	}()

	acc, err := capture(read, maxDur, stop, pick)
	select {
	case <-stop:
	default:
		fmt.Print("  time is up, press ENTER to continue...")
		<-stop
	}
	return acc, err
}

func done(acc *calib.Accumulator) (*calib.Accumulator, error) {
	if acc.Len() == 0 {
		return nil, fmt.Errorf("no samples captured")
	}
	return acc, nil
}

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", strings.TrimSpace(err.Error()))
	os.Exit(1)
}
