package stopwatch

import (
	"errors"
	"fmt"
	"time"
)

// Clock supplies the current instant in milliseconds since an arbitrary epoch.
// Successive calls within one stopwatch session must not decrease.
type Clock interface {
	NowMillis() int64
}

// Checker is implemented by clocks that can report they are unable to read time.
type Checker interface {
	Check() error
}

// ErrClockUnavailable is returned when a clock reports it cannot read time.
var ErrClockUnavailable = errors.New("clock unavailable")

// SystemClock is the default Clock backed by wall-clock time.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// CheckClock reports ErrClockUnavailable when clock implements Checker and fails.
func CheckClock(clock Clock) error {
	if clock == nil {
		return ErrClockUnavailable
	}
	checker, ok := clock.(Checker)
	if !ok {
		return nil
	}
	if err := checker.Check(); err != nil {
		return fmt.Errorf("%w: %v", ErrClockUnavailable, err)
	}
	return nil
}

// ClockFunc adapts a plain function into a Clock.
type ClockFunc func() int64

func (f ClockFunc) NowMillis() int64 {
	return f()
}
