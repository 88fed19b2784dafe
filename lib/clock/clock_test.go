// Copyright 2026 The catkin-tools Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNowAdvances(t *testing.T) {
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Fatalf("Now = %v, want %v", got, start)
	}
	fake.Advance(90 * time.Second)
	if got := fake.Since(start); got != 90*time.Second {
		t.Fatalf("Since = %v, want 90s", got)
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	timer := fake.After(time.Second)

	select {
	case <-timer:
		t.Fatal("timer fired before Advance")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case <-timer:
		t.Fatal("timer fired before its deadline")
	default:
	}

	fake.Advance(500 * time.Millisecond)
	select {
	case <-timer:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after Advance past the deadline")
	}
}

func TestFakeAfterNonPositiveFiresImmediately(t *testing.T) {
	fake := Fake(time.Unix(0, 0))
	select {
	case <-fake.After(0):
	case <-time.After(time.Second):
		t.Fatal("After(0) should fire immediately")
	}
}

func TestRealClockMovesForward(t *testing.T) {
	real := Real()
	before := real.Now()
	real.Sleep(time.Millisecond)
	if real.Since(before) <= 0 {
		t.Fatal("real clock did not move forward")
	}
}
