// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/strapdown/internal/config"
	"github.com/relabs-tech/strapdown/internal/gps"
)

// RunGPSProducer opens the GPS serial port, parses NMEA sentences, and
// publishes combined GPS fixes as JSON to TOPIC_GPS.
func RunGPSProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("gps: config not initialized")
	}
	if cfg.GPSSerialPort == "" {
		return fmt.Errorf("gps: GPS_SERIAL_PORT is not set")
	}

	client, err := connectMQTT("gps", cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("gps: open %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return streamFixes(port, mqttPublisher{client: client}, cfg.TopicGPS)
}

// streamFixes publishes one fix per RMC sentence read from r until r fails.
func streamFixes(r io.Reader, pub publisher, topic string) error {
	reader := bufio.NewReader(r)
	var dec gps.Decoder

	for {
		line, err := reader.ReadString('\n')
		if fix, ok := dec.Feed(line); ok {
			if perr := pub.Publish(topic, fix); perr != nil {
				log.Printf("gps: %v", perr)
			} else {
				log.Printf("gps: published fix: %+v", fix)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("gps: read: %w", err)
		}
	}
}
