// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht22 controls an AOSONG DHT22 (AM2302) temperature and relative
// humidity sensor over a single GPIO line.
//
// The sensor speaks a proprietary single-wire protocol: the host pulls the
// line low for a couple of milliseconds, the sensor answers with an 80µs
// low/high acknowledge and then sends 40 bits where the width of the high
// pulse tells a 0 (~26µs) from a 1 (~70µs). The driver samples the line by
// spinning on gpio.PinIn.Read() and compares the high phase of each bit
// against its low phase, so it does not depend on an absolute time base.
//
// The sensor needs one second to settle after power up and must not be
// polled more often than every two seconds. Dev caches the last reading and
// only talks to the sensor when that interval has elapsed.
//
// Dev implements physic.SenseEnv. The pressure is never set.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/Digital+humidity+and+temperature+sensor+AM2302.pdf
package dht22
