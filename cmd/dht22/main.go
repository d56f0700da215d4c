// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dht22 polls a DHT22 temperature and humidity sensor and publishes the
// readings to the console, a PNG file and/or an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/dht/dht22"
	"github.com/GermanBionicSystems/dht/dht22/dht22test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"
)

// reader is the part of dht22.Dev used by the polling loop.
type reader interface {
	Read() dht22.Reading
}

// run reads r every interval until ctx is done and hands each reading to
// outs. The first reading is taken immediately.
func run(ctx context.Context, r reader, interval time.Duration, outs []output) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		reading := r.Read()
		now := time.Now()
		if reading.Status != dht22.StatusValid {
			log.Printf("dht22: reading failed: %s (frame %#x, %d bits skipped)", reading.Status, reading.Frame[:], reading.SkippedBits)
		}
		for _, o := range outs {
			if err := o.publish(reading, now); err != nil {
				log.Printf("dht22: publish: %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// simulatedFrames is a slow drift around room conditions.
func simulatedFrames() [][5]byte {
	var frames [][5]byte
	for i := 0; i < 24; i++ {
		d := float64(i%12) - 6
		frames = append(frames, dht22test.Encode(45+d/2, 21+d/4))
	}
	return frames
}

func openPin(cfg Config) (gpio.PinIO, error) {
	if cfg.Simulate {
		return &dht22test.Sensor{Pin: gpiotest.Pin{N: "SIM"}, Frames: simulatedFrames()}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(cfg.Pin)
	if p == nil {
		return nil, fmt.Errorf("failed to find pin %q", cfg.Pin)
	}
	return p, nil
}

func mainImpl() error {
	cfg, err := Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}
	p, err := openPin(cfg)
	if err != nil {
		return err
	}
	d, err := dht22.New(p, nil)
	if err != nil {
		return err
	}
	outs, err := openOutputs(cfg)
	if err != nil {
		return errors.Join(err, d.Halt())
	}
	defer closeOutputs(outs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Printf("dht22: polling %s every %dms", d, cfg.IntervalMs)
	err = run(ctx, d, time.Duration(cfg.IntervalMs)*time.Millisecond, outs)
	return errors.Join(err, d.Halt())
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "dht22: %s.\n", err)
		os.Exit(1)
	}
}
