package util

import (
	"testing"

	"mystopwatch/backend/internal/stopwatch"
)

func TestTimerElapsed(t *testing.T) {
	now := int64(500)
	clock := stopwatch.ClockFunc(func() int64 { return now })

	timer := StartTimer(clock)
	now = 740
	if got := timer.ElapsedMs(); got != 240 {
		t.Fatalf("expected 240 got %d", got)
	}

	now = 100
	if got := timer.ElapsedMs(); got != 0 {
		t.Fatalf("expected 0 after clock regression got %d", got)
	}

	var zero Timer
	if got := zero.ElapsedMs(); got != 0 {
		t.Fatalf("expected 0 for zero timer got %d", got)
	}
}
