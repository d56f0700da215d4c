// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d prints environmental readings to the terminal (stdout) as
// two 1D gauges drawn with ANSI color codes.
//
// Useful to watch a sensor from an ssh session without any display attached.
package screen1d

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/physic"
)

// Range of each gauge.
const (
	minCelsius = -40.0
	maxCelsius = 80.0
	minRH      = 0.0
	maxRH      = 100.0
)

var (
	cold = color.NRGBA{0, 64, 255, 255}
	hot  = color.NRGBA{255, 32, 0, 255}
	dry  = color.NRGBA{255, 224, 160, 255}
	wet  = color.NRGBA{0, 96, 255, 255}
	off  = color.NRGBA{40, 40, 40, 255}
)

// Opts represents the options available for this display.
type Opts struct {
	// X is the width of each gauge, in characters.
	X       int
	Palette *ansi256.Palette

	_ struct{}
}

// Dev is a two gauge readout that outputs to the console.
type Dev struct {
	w       io.Writer
	l       int
	palette ansi256.Palette

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Dev{
		w:       colorable.NewColorableStdout(),
		l:       opts.X,
		palette: *p,
	}
}

func (d *Dev) String() string {
	return "Screen1D"
}

// Halt implements conn.Resource.
//
// It resets the terminal attributes so the prompt is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Display overwrites the current line with the temperature and humidity of
// e. The pressure is ignored.
func (d *Dev) Display(e physic.Env) error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	c := e.Temperature.Celsius()
	d.gauge(c, minCelsius, maxCelsius, cold, hot)
	_, _ = fmt.Fprintf(&d.buf, "\033[0m %5.1f°C  ", c)
	rh := float64(e.Humidity) / float64(physic.PercentRH)
	d.gauge(rh, minRH, maxRH, dry, wet)
	_, _ = fmt.Fprintf(&d.buf, "\033[0m %5.1f%%rH ", rh)
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) gauge(v, min, max float64, lo, hi color.NRGBA) {
	n := fill(v, min, max, d.l)
	c := blend(lo, hi, float64(n)/float64(d.l))
	for i := 0; i < d.l; i++ {
		if i < n {
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		} else {
			_, _ = io.WriteString(&d.buf, d.palette.Block(off))
		}
	}
}

// fill returns how many of width cells represent v within [min, max].
func fill(v, min, max float64, width int) int {
	if width <= 0 || max <= min || math.IsNaN(v) {
		return 0
	}
	f := (v - min) / (max - min)
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return int(math.Round(f * float64(width)))
}

func blend(a, b color.NRGBA, f float64) color.NRGBA {
	if math.IsNaN(f) {
		f = 0
	}
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

var _ fmt.Stringer = &Dev{}
