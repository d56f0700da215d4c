// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht is a container for the DHT22 single-wire temperature and
// humidity sensor driver and the small set of helpers around it.
//
// The driver lives in dht22, a playback fake for tests in dht22/dht22test,
// and cmd/dht22 is a host program that polls a sensor and publishes it.
package dht
