// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht22

import "fmt"

// ReadTimeoutError is returned when the sensor did not acknowledge the start
// signal within the timing window.
type ReadTimeoutError struct{}

func (e *ReadTimeoutError) Error() string {
	return "dht22: read timeout, the sensor did not acknowledge the start signal"
}

// DataCorruptionError is returned when the frame checksum does not match.
type DataCorruptionError struct {
	Frame Frame
}

func (e *DataCorruptionError) Error() string {
	return fmt.Sprintf("dht22: data is corrupt, checksum 0x%02x does not match frame %#x", e.Frame.Checksum(), e.Frame[:])
}
