// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the additive checksum carried by AOSONG single-wire frames.
package common

// Sum8 returns the sum of the bytes truncated to 8 bits. DHT11/DHT22/AM2302
// sensors append it to their payload.
func Sum8(bytes []byte) byte {
	var sum byte
	for _, val := range bytes {
		sum += val
	}
	return sum
}
