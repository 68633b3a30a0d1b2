package stopwatch

import (
	"errors"
	"fmt"
)

// ErrClockRegression reports a clock reading earlier than the running segment's start.
var ErrClockRegression = errors.New("clock moved backwards")

// ElapsedTimeCalculator computes the live elapsed time of a running stopwatch.
type ElapsedTimeCalculator struct {
	clock Clock
}

// NewElapsedTimeCalculator returns a calculator reading from clock.
func NewElapsedTimeCalculator(clock Clock) *ElapsedTimeCalculator {
	return &ElapsedTimeCalculator{clock: clock}
}

// Calculate returns the accumulated time plus the time since state.StartMs.
// Readings at or before StartMs contribute nothing.
func (c *ElapsedTimeCalculator) Calculate(state Running) int64 {
	elapsed, _ := c.CalculateChecked(state)
	return elapsed
}

// CalculateChecked behaves like Calculate and additionally returns
// ErrClockRegression when the clock reads earlier than state.StartMs. The
// returned elapsed value is the clamped one in every case.
func (c *ElapsedTimeCalculator) CalculateChecked(state Running) (int64, error) {
	now := c.clock.NowMillis()
	if now > state.StartMs {
		return now - state.StartMs + state.ElapsedMs, nil
	}
	if now < state.StartMs {
		return state.ElapsedMs, fmt.Errorf("%w: now %d before start %d", ErrClockRegression, now, state.StartMs)
	}
	return state.ElapsedMs, nil
}

// Elapsed returns the live elapsed time of any state. A nil state reads as 0.
func (c *ElapsedTimeCalculator) Elapsed(state State) int64 {
	switch s := state.(type) {
	case Running:
		return c.Calculate(s)
	case Paused:
		return s.ElapsedMs
	default:
		return 0
	}
}
