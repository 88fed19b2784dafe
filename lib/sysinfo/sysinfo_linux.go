// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

// Package sysinfo reads the machine state the scheduler throttles on:
// the 1-minute load average and the CPU count.
package sysinfo

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// loadScale converts the fixed-point load values of sysinfo(2) to
// floats (SI_LOAD_SHIFT is 16).
const loadScale = 1 << 16

// LoadAverage returns the 1-minute load average.
func LoadAverage() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("reading system info: %w", err)
	}
	return float64(info.Loads[0]) / loadScale, nil
}

// CPUCount returns the number of usable CPUs. Build parallelism
// defaults derive from this.
func CPUCount() int {
	return runtime.NumCPU()
}
