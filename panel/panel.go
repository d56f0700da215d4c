// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package panel renders an environmental reading as an image, ready to be
// sent to a display.Drawer such as an ssd1306 or an e-paper panel, or saved
// as a PNG.
package panel

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/physic"
)

// Opts holds the layout of the panel.
type Opts struct {
	W, H int
	// Size is the font size in points of the values.
	Size float64
	// Title is drawn above the values when not empty.
	Title string
	// Invert draws white on black.
	Invert bool
}

// DefaultOpts fits a 128x64 monochrome OLED.
var DefaultOpts = Opts{
	W:    128,
	H:    64,
	Size: 16,
}

// Render draws the temperature and humidity of e. The pressure is ignored.
// The Opts can be nil.
func Render(e physic.Env, opts *Opts) (image.Image, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.W <= 0 || opts.H <= 0 || opts.Size <= 0 {
		return nil, errors.New("panel: invalid dimensions")
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("panel: failed to parse font: %w", err)
	}

	dc := gg.NewContext(opts.W, opts.H)
	bg, fg := 1.0, 0.0
	if opts.Invert {
		bg, fg = fg, bg
	}
	dc.SetRGB(bg, bg, bg)
	dc.Clear()
	dc.SetRGB(fg, fg, fg)

	w := float64(opts.W)
	lines := []string{
		fmt.Sprintf("%.1f°C", e.Temperature.Celsius()),
		fmt.Sprintf("%.1f%%", float64(e.Humidity)/float64(physic.PercentRH)),
	}
	if opts.Title != "" {
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: opts.Size / 2}))
		dc.DrawStringAnchored(opts.Title, w/2, float64(opts.H)/8, 0.5, 0.5)
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: opts.Size}))
	step := float64(opts.H) / float64(len(lines)+1)
	for i, l := range lines {
		dc.DrawStringAnchored(l, w/2, step*float64(i+1)+step/4, 0.5, 0.5)
	}
	return dc.Image(), nil
}

// SavePNG renders e and writes it to path.
func SavePNG(path string, e physic.Env, opts *Opts) error {
	img, err := Render(e, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
