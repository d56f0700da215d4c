// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import (
	"math/rand"
	"testing"
)

func TestFrameDecode(t *testing.T) {
	var tests = []struct {
		name        string
		frame       Frame
		valid       bool
		humidity    float64
		temperature float64
	}{
		{"room", Frame{0x01, 0x90, 0x01, 0x04, 0x96}, true, 40.0, 26.0},
		{"corrupt", Frame{0x01, 0x90, 0x01, 0x04, 0x00}, false, 40.0, 26.0},
		{"zero", Frame{}, true, 0, 0},
		{"datasheet", Frame{0x02, 0x8c, 0x01, 0x5f, 0xee}, true, 65.2, 35.1},
		{"below zero", Frame{0x02, 0x2b, 0x80, 0x65, 0x12}, true, 55.5, -10.1},
		{"minus zero", Frame{0x00, 0x00, 0x80, 0x00, 0x80}, true, 0, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if v := test.frame.Valid(); v != test.valid {
				t.Errorf("Valid() = %t, want %t", v, test.valid)
			}
			if h := test.frame.Humidity(); h != test.humidity {
				t.Errorf("Humidity() = %v, want %v", h, test.humidity)
			}
			if tc := test.frame.Temperature(); tc != test.temperature {
				t.Errorf("Temperature() = %v, want %v", tc, test.temperature)
			}
		})
	}
}

func TestFrameDecodeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(22))
	for i := 0; i < 1000; i++ {
		var f Frame
		f[0] = byte(r.Intn(256))
		f[1] = byte(r.Intn(256))
		f[2] = byte(r.Intn(128))
		f[3] = byte(r.Intn(256))
		f[4] = f[0] + f[1] + f[2] + f[3]
		if !f.Valid() {
			t.Fatalf("%#v should be valid", f)
		}
		if h, want := f.Humidity(), float64(int(f[0])<<8|int(f[1]))/10.0; h != want {
			t.Fatalf("%#v: humidity %v, want %v", f, h, want)
		}
		if tc, want := f.Temperature(), float64(int(f[2])<<8|int(f[3]))/10.0; tc != want {
			t.Fatalf("%#v: temperature %v, want %v", f, tc, want)
		}
		f[4]++
		if f.Valid() {
			t.Fatalf("%#v should not be valid", f)
		}
	}
}

func TestDecodeBit(t *testing.T) {
	var tests = []struct {
		high, low int
		want      bool
	}{
		{26, 50, false},
		{70, 50, true},
		{50, 50, false},
		{51, 50, true},
		{0, 0, false},
	}
	for _, test := range tests {
		if got := decodeBit(test.high, test.low); got != test.want {
			t.Errorf("decodeBit(%d, %d) = %t, want %t", test.high, test.low, got, test.want)
		}
	}
}

func TestFrameShift(t *testing.T) {
	f := Frame{0xff}
	for _, b := range []bool{false, true, false, true, false, true, true, false} {
		f.shift(0, b)
	}
	if f[0] != 0x56 {
		t.Fatalf("shifted byte = 0x%02x, want 0x56", f[0])
	}
	if f[1] != 0 {
		t.Fatal("shift touched another byte")
	}
}
