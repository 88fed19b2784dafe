// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package sysinfo

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("load average not available on this platform")

// LoadAverage is unavailable off Linux; the scheduler treats an error
// as "do not throttle".
func LoadAverage() (float64, error) {
	return 0, errUnsupported
}

// CPUCount returns the number of usable CPUs.
func CPUCount() int {
	return runtime.NumCPU()
}
