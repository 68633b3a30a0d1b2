package util

import "mystopwatch/backend/internal/stopwatch"

// Timer is a lightweight helper to measure elapsed durations against a clock.
type Timer struct {
	clock   stopwatch.Clock
	startMs int64
}

// StartTimer creates a new timer starting at the clock's current reading.
// A nil clock uses stopwatch.SystemClock.
func StartTimer(clock stopwatch.Clock) Timer {
	if clock == nil {
		clock = stopwatch.SystemClock
	}
	return Timer{clock: clock, startMs: clock.NowMillis()}
}

// ElapsedMs returns the elapsed milliseconds since start, never negative.
func (t Timer) ElapsedMs() int64 {
	if t.clock == nil {
		return 0
	}
	if now := t.clock.NowMillis(); now > t.startMs {
		return now - t.startMs
	}
	return 0
}
