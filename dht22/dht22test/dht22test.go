// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht22test is meant to be used to test drivers talking to a DHT22
// without the sensor.
//
// Sensor is a gpio.PinIO that answers each start signal with the DHT22
// waveform for a scripted frame. Pulse widths are expressed in pin reads, so
// a spin loop calling Read() measures them exactly.
package dht22test

import (
	"math"
	"sync"

	"github.com/GermanBionicSystems/dht/common"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Timing holds the pulse widths of the waveform, in reads.
type Timing struct {
	// Response is the high time between the release of the start signal and
	// the acknowledge.
	Response int
	AckLow   int
	AckHigh  int
	// BitLow is the low time preceding each bit.
	BitLow int
	// Zero and One are the high time of a 0 and a 1.
	Zero int
	One  int
	// Tail is the low time closing the frame.
	Tail int
}

// DefaultTiming mirrors the datasheet, one read per microsecond.
var DefaultTiming = Timing{
	Response: 30,
	AckLow:   80,
	AckHigh:  80,
	BitLow:   50,
	Zero:     26,
	One:      70,
	Tail:     50,
}

// Sensor plays back frames like a DHT22 would.
//
// A start signal is an Out(gpio.Low) followed by In(). When no frame is
// queued the line stays high, which the driver sees as a timeout.
type Sensor struct {
	gpiotest.Pin

	// Frames are answered in order. The last one is repeated.
	Frames [][5]byte
	// Bits truncates each answer after that many data bits when non-zero.
	Bits int
	// Timing of the waveform. The zero value uses DefaultTiming.
	Timing Timing

	mu       sync.Mutex
	requests int
	pulled   bool
	script   []run
}

type run struct {
	l gpio.Level
	n int
}

// Requests returns the number of start signals received so far.
func (s *Sensor) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Out implements gpio.PinOut.
func (s *Sensor) Out(l gpio.Level) error {
	if err := s.Pin.Out(l); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulled = l == gpio.Low
	s.script = nil
	return nil
}

// In implements gpio.PinIn.
func (s *Sensor) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := s.Pin.In(pull, edge); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pulled {
		s.pulled = false
		s.requests++
		s.script = s.answer()
	}
	return nil
}

// Read implements gpio.PinIn. Outside of a transaction the line idles high.
func (s *Sensor) Read() gpio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.script) > 0 && s.script[0].n == 0 {
		s.script = s.script[1:]
	}
	if len(s.script) == 0 {
		return gpio.High
	}
	s.script[0].n--
	return s.script[0].l
}

// answer builds the waveform for the current request. s.mu must be held.
func (s *Sensor) answer() []run {
	if len(s.Frames) == 0 {
		return nil
	}
	i := s.requests - 1
	if i >= len(s.Frames) {
		i = len(s.Frames) - 1
	}
	f := s.Frames[i]
	t := s.Timing
	if t == (Timing{}) {
		t = DefaultTiming
	}
	bits := 8 * len(f)
	if s.Bits > 0 && s.Bits < bits {
		bits = s.Bits
	}
	out := make([]run, 0, 4+2*bits)
	out = append(out, run{gpio.High, t.Response}, run{gpio.Low, t.AckLow}, run{gpio.High, t.AckHigh})
	for n := 0; n < bits; n++ {
		w := t.Zero
		if f[n/8]&(0x80>>(n%8)) != 0 {
			w = t.One
		}
		out = append(out, run{gpio.Low, t.BitLow}, run{gpio.High, w})
	}
	return append(out, run{gpio.Low, t.Tail})
}

// Encode returns the frame a DHT22 sends for the given relative humidity in
// percent and temperature in °C, checksum included.
func Encode(humidity, temperature float64) [5]byte {
	h := uint16(math.Round(humidity * 10))
	t := math.Round(temperature * 10)
	var raw uint16
	if t < 0 {
		raw = uint16(-t) | 0x8000
	} else {
		raw = uint16(t)
	}
	f := [5]byte{byte(h >> 8), byte(h), byte(raw >> 8), byte(raw)}
	f[4] = common.Sum8(f[:4])
	return f
}

var _ gpio.PinIO = &Sensor{}
