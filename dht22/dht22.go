// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	// MinInterval is the shortest time between two transactions. Polling
	// faster corrupts the conversion cycle of the sensor.
	MinInterval = 2 * time.Second

	// settleDelay is the time the sensor needs after power up.
	settleDelay = time.Second
	// startSignal is how long the host holds the line low to request a frame.
	startSignal = 2 * time.Millisecond

	frameBits = 40
)

// Status tells how the last transaction went.
type Status int

const (
	// StatusNone means no transaction happened yet.
	StatusNone Status = iota
	// StatusValid means the last frame passed its checksum.
	StatusValid
	// StatusTimeout means the sensor did not acknowledge the start signal.
	// The values of the previous transaction are kept.
	StatusTimeout
	// StatusChecksum means a frame was received but its checksum did not
	// match. Both values are reset to 0.
	StatusChecksum
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusValid:
		return "valid"
	case StatusTimeout:
		return "timeout"
	case StatusChecksum:
		return "checksum"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reading is the cached result of the last transaction.
type Reading struct {
	// Temperature in °C.
	Temperature float64
	// Humidity is the relative humidity in percent.
	Humidity float64
	Status   Status
	// Frame is the raw payload, as last shifted in.
	Frame Frame
	// SkippedBits is the number of bits that timed out in the last frame.
	// They were not shifted in.
	SkippedBits int
}

// Opts holds the configuration options for the device.
//
// Timeout, CyclesPerCount and CPUFrequency calibrate the spin loop used to
// time edges: a single wait gives up after
// Timeout[µs] / CyclesPerCount * CPUFrequency[MHz] iterations.
type Opts struct {
	// Timeout bounds each edge wait. The longest pulse sent by the sensor is
	// 80µs.
	Timeout time.Duration
	// CyclesPerCount is the number of CPU cycles taken by one iteration of
	// the spin loop, pin read included.
	CyclesPerCount int
	// CPUFrequency is the clock of the host CPU.
	CPUFrequency physic.Frequency
	// Clock is the millisecond counter used to enforce MinInterval. Leave nil
	// to use the process monotonic clock.
	Clock Clock
	// Guard is locked while bits are sampled. Leave nil to pin the goroutine
	// to its thread and pause the garbage collector.
	Guard sync.Locker
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Timeout:        300 * time.Microsecond,
	CyclesPerCount: 50,
	CPUFrequency:   physic.GigaHertz,
}

type state int

const (
	uninitialized state = iota
	settling
	ready
)

// Dev is a handle to a DHT22 sensor on a GPIO line.
//
// A Dev must be created with New and must not be copied. Only one Dev should
// ever be bound to a given pin.
type Dev struct {
	pin   gpio.PinIO
	timer edgeTimer
	clock Clock
	guard sync.Locker

	mu          sync.Mutex
	state       state
	frame       Frame
	lastRead    uint32
	temperature float64
	humidity    float64
	status      Status
	skipped     int

	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns a Dev that talks to a DHT22 connected to p. The pin is not
// touched until the first read. The Opts can be nil.
func New(p gpio.PinIO, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	limit := spinLimit(opts)
	if limit < 1 {
		return nil, errors.New("dht22: invalid timing options, spin limit is below 1")
	}
	d := &Dev{
		pin:   p,
		timer: &spinner{pin: p, limit: limit},
		clock: opts.Clock,
		guard: opts.Guard,
	}
	if d.clock == nil {
		d.clock = newMonotonic()
	}
	if d.guard == nil {
		d.guard = &schedGuard{}
	}
	return d, nil
}

// Temperature returns the temperature in °C.
//
// The first call blocks for one second while the sensor settles. Later calls
// only talk to the sensor when MinInterval elapsed since the previous
// transaction, otherwise the cached value is returned.
func (d *Dev) Temperature() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refresh()
	return d.temperature
}

// RelativeHumidity returns the relative humidity in percent. It shares its
// cache with Temperature.
func (d *Dev) RelativeHumidity() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refresh()
	return d.humidity
}

// Read refreshes the cache like Temperature does and returns it with the
// status of the last transaction.
func (d *Dev) Read() Reading {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refresh()
	return Reading{
		Temperature: d.temperature,
		Humidity:    d.humidity,
		Status:      d.status,
		Frame:       d.frame,
		SkippedBits: d.skipped,
	}
}

// Sense implements physic.SenseEnv.
//
// It returns a *ReadTimeoutError when the sensor did not answer and a
// *DataCorruptionError when the frame checksum did not match. In both cases
// e is left untouched.
func (d *Dev) Sense(e *physic.Env) error {
	r := d.Read()
	switch r.Status {
	case StatusTimeout:
		return &ReadTimeoutError{}
	case StatusChecksum:
		return &DataCorruptionError{Frame: r.Frame}
	}
	e.Temperature = physic.ZeroCelsius + (physic.Celsius/10)*physic.Temperature(r.Frame.rawTemperature())
	e.Humidity = physic.RelativeHumidity(r.Frame.rawHumidity()) * physic.MilliRH
	return nil
}

// SenseContinuous implements physic.SenseEnv. The interval must be at least
// MinInterval. Readings that fail are dropped. Call Halt() to stop.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < MinInterval {
		return nil, fmt.Errorf("dht22: invalid duration %s, minimum %s", interval, MinInterval)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("dht22: sense continuous already running")
	}
	d.stop = make(chan struct{})
	ch := make(chan physic.Env, 16)
	d.wg.Add(1)
	go d.senseContinuous(interval, ch, d.stop)
	return ch, nil
}

func (d *Dev) senseContinuous(interval time.Duration, ch chan<- physic.Env, stop <-chan struct{}) {
	defer d.wg.Done()
	defer close(ch)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			var e physic.Env
			if err := d.Sense(&e); err != nil {
				continue
			}
			select {
			case ch <- e:
			case <-stop:
				return
			}
		}
	}
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Celsius / 10
	e.Pressure = 0
	e.Humidity = physic.MilliRH
}

// Halt implements conn.Resource.
//
// It stops a running SenseContinuous() and releases the line to its pull-up.
func (d *Dev) Halt() error {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
	return d.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (d *Dev) String() string {
	return "dht22{" + d.pin.String() + "}"
}

// refresh runs a transaction if the cache is stale. d.mu must be held.
func (d *Dev) refresh() {
	switch d.state {
	case uninitialized:
		d.state = settling
		_ = d.pin.In(gpio.PullUp, gpio.NoEdge)
		sleep(settleDelay)
		d.state = ready
	case ready:
		if elapsed(d.clock.Millis(), d.lastRead) <= uint32(MinInterval/time.Millisecond) {
			return
		}
	}
	d.fetch()
}

// fetch runs one transaction and updates the cache.
func (d *Dev) fetch() {
	skipped, ok := d.transact()
	// Stamped even on failure so a silent sensor is not hammered.
	d.lastRead = d.clock.Millis()
	d.skipped = skipped
	if !ok {
		d.status = StatusTimeout
		return
	}
	if !d.frame.Valid() {
		d.temperature = 0
		d.humidity = 0
		d.status = StatusChecksum
		return
	}
	d.humidity = d.frame.Humidity()
	d.temperature = d.frame.Temperature()
	d.status = StatusValid
}

// transact sends the start signal and shifts the answer into d.frame. It
// returns false when the acknowledge sequence timed out, in which case the
// frame is untouched.
func (d *Dev) transact() (int, bool) {
	if err := d.pin.Out(gpio.Low); err != nil {
		return 0, false
	}
	sleep(startSignal)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return 0, false
	}

	d.guard.Lock()
	defer d.guard.Unlock()

	// Acknowledge: falling, rising then falling edge, 80µs apart.
	for _, l := range [...]gpio.Level{gpio.Low, gpio.High, gpio.Low} {
		if _, ok := d.timer.waitFor(l); !ok {
			return 0, false
		}
	}

	skipped := 0
	for n := 0; n < frameBits; n++ {
		low, ok := d.timer.waitFor(gpio.High)
		if !ok {
			skipped++
			continue
		}
		high, ok := d.timer.waitFor(gpio.Low)
		if !ok {
			skipped++
			continue
		}
		d.frame.shift(n/8, decodeBit(high, low))
	}
	return skipped, true
}

var sleep = time.Sleep

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
