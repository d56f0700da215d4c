// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/dht/dht22"
)

type fakeReader struct {
	mu    sync.Mutex
	reads int
}

func (f *fakeReader) Read() dht22.Reading {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.reads%2 == 0 {
		return dht22.Reading{Status: dht22.StatusChecksum}
	}
	return valid
}

type recorder struct {
	mu       sync.Mutex
	readings []dht22.Reading
	closed   bool
	notify   chan struct{}
}

func (r *recorder) publish(reading dht22.Reading, _ time.Time) error {
	r.mu.Lock()
	r.readings = append(r.readings, reading)
	n := len(r.readings)
	r.mu.Unlock()
	if n == 3 {
		close(r.notify)
	}
	return nil
}

func (r *recorder) close() error {
	r.closed = true
	return nil
}

func TestRun(t *testing.T) {
	rec := &recorder{notify: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- run(ctx, &fakeReader{}, 10*time.Millisecond, []output{rec})
	}()
	select {
	case <-rec.notify:
	case <-time.After(5 * time.Second):
		t.Fatal("no readings published")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.readings[0].Status != dht22.StatusValid || rec.readings[1].Status != dht22.StatusChecksum {
		t.Fatalf("unexpected readings %+v", rec.readings[:2])
	}
	closeOutputs([]output{rec})
	if !rec.closed {
		t.Fatal("output not closed")
	}
}

func TestSimulatedFrames(t *testing.T) {
	frames := simulatedFrames()
	if len(frames) == 0 {
		t.Fatal("no frames")
	}
	for _, f := range frames {
		fr := dht22.Frame(f)
		if !fr.Valid() {
			t.Fatalf("invalid simulated frame %#v", f)
		}
		if h := fr.Humidity(); h < 40 || h > 50 {
			t.Fatalf("humidity %v out of range", h)
		}
	}
}

func TestSimulatedSensor(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the sensor to settle")
	}
	cfg := DefaultConfig()
	cfg.Simulate = true
	p, err := openPin(cfg)
	if err != nil {
		t.Fatal(err)
	}
	d, err := dht22.New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := d.Read()
	if r.Status != dht22.StatusValid {
		t.Fatalf("unexpected reading %+v", r)
	}
	if r != d.Read() {
		t.Fatal("second read within the interval should hit the cache")
	}
}
