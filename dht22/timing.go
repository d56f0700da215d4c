// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import (
	"runtime"
	"runtime/debug"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Clock is a free running millisecond counter. It is expected to wrap around
// at 2^32.
type Clock interface {
	Millis() uint32
}

type monotonic struct {
	start time.Time
}

func newMonotonic() *monotonic {
	return &monotonic{start: time.Now()}
}

func (m *monotonic) Millis() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// elapsed returns the milliseconds between last and now. The modular
// subtraction stays correct when the counter wrapped in between.
func elapsed(now, last uint32) uint32 {
	return now - last
}

// edgeTimer measures how long the line takes to reach a level, in loop
// iterations. It returns false on timeout.
type edgeTimer interface {
	waitFor(l gpio.Level) (int, bool)
}

// spinner busy reads the pin.
type spinner struct {
	pin   gpio.PinIn
	limit int
}

func (s *spinner) waitFor(l gpio.Level) (int, bool) {
	count := 0
	for s.pin.Read() != l {
		count++
		if count >= s.limit {
			return 0, false
		}
	}
	return count, true
}

// spinLimit converts opts.Timeout into a number of spinner iterations.
func spinLimit(opts *Opts) int {
	if opts.CyclesPerCount <= 0 {
		return 0
	}
	us := int(opts.Timeout / time.Microsecond)
	mhz := int(opts.CPUFrequency / physic.MegaHertz)
	return us / opts.CyclesPerCount * mhz
}

// schedGuard keeps the Go runtime from moving the goroutine to another
// thread or stopping the world for a collection while bits are sampled.
type schedGuard struct {
	gcPercent int
}

func (g *schedGuard) Lock() {
	runtime.LockOSThread()
	g.gcPercent = debug.SetGCPercent(-1)
}

func (g *schedGuard) Unlock() {
	debug.SetGCPercent(g.gcPercent)
	runtime.UnlockOSThread()
}
