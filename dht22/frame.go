// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import "github.com/GermanBionicSystems/dht/common"

// Frame is the payload sent by the sensor in one transaction.
//
// Byte 0 and 1 are the relative humidity in tenth of percent, byte 2 and 3
// the temperature in tenth of °C, byte 4 the checksum.
type Frame [5]byte

// Checksum returns the checksum computed over the first four bytes.
func (f Frame) Checksum() byte {
	return common.Sum8(f[:4])
}

// Valid returns true if the computed checksum matches byte 4.
func (f Frame) Valid() bool {
	return f.Checksum() == f[4]
}

// Humidity returns the relative humidity in percent.
func (f Frame) Humidity() float64 {
	return float64(f.rawHumidity()) / 10.0
}

// Temperature returns the temperature in °C.
func (f Frame) Temperature() float64 {
	return float64(f.rawTemperature()) / 10.0
}

func (f Frame) rawHumidity() int {
	return int(f[0])<<8 | int(f[1])
}

// rawTemperature uses sign and magnitude: bit 15 is the sign, the lower 15
// bits are the absolute value.
func (f Frame) rawTemperature() int {
	t := int(f[2]&0x7f)<<8 | int(f[3])
	if f[2]&0x80 != 0 {
		return -t
	}
	return t
}

// shift pushes one bit into byte n, MSB first.
func (f *Frame) shift(n int, one bool) {
	f[n] <<= 1
	if one {
		f[n] |= 1
	}
}

// decodeBit returns the value of a bit given the spin counts measured during
// its high and low phases. A short high pulse is a 0, a long one is a 1.
func decodeBit(high, low int) bool {
	return high > low
}
