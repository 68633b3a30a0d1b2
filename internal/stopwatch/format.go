package stopwatch

import (
	"fmt"
	"strings"
)

// DefaultTime is shown before any measurement exists.
const DefaultTime = "00:00:00"

// Layout selects how Format arranges the decomposed fields.
type Layout string

const (
	// LayoutClock renders HH:MM:SS from one hour on and MM:SS:CC below it,
	// CC being hundredths of a second.
	LayoutClock Layout = "clock"
	// LayoutCompat reproduces the legacy display, which repeats the minutes
	// field in the hours slot (MM:MM:SS) and the hundredths field on both
	// ends below one hour (CC:SS:CC).
	LayoutCompat Layout = "compat"
)

// ParseLayout maps a configuration value to a Layout. Empty selects LayoutClock.
func ParseLayout(value string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(value))) {
	case "", LayoutClock:
		return LayoutClock, nil
	case LayoutCompat:
		return LayoutCompat, nil
	default:
		return "", fmt.Errorf("unknown format layout %q", value)
	}
}

// Formatter renders elapsed milliseconds for display.
type Formatter struct {
	layout Layout
}

// NewFormatter returns a formatter for layout. Unknown layouts use LayoutClock.
func NewFormatter(layout Layout) Formatter {
	if layout != LayoutCompat {
		layout = LayoutClock
	}
	return Formatter{layout: layout}
}

// Layout reports the layout in use.
func (f Formatter) Layout() Layout {
	if f.layout == "" {
		return LayoutClock
	}
	return f.layout
}

// Format renders totalMs. Negative input is outside the contract and renders
// as DefaultTime.
func (f Formatter) Format(totalMs int64) string {
	if totalMs < 0 {
		return DefaultTime
	}

	// two digits only: 999ms shows as 99
	hundredths := pad2((totalMs % 1000) / 10)
	seconds := totalMs / 1000
	secondsField := pad2(seconds % 60)
	minutes := seconds / 60
	minutesField := pad2(minutes % 60)
	hours := minutes / 60

	if f.Layout() == LayoutCompat {
		if hours > 0 {
			return minutesField + ":" + minutesField + ":" + secondsField
		}
		return hundredths + ":" + secondsField + ":" + hundredths
	}

	if hours > 0 {
		return pad2(hours) + ":" + minutesField + ":" + secondsField
	}
	return minutesField + ":" + secondsField + ":" + hundredths
}

func pad2(v int64) string {
	return fmt.Sprintf("%02d", v)
}
