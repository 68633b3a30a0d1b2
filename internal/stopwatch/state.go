// Package stopwatch holds the stopwatch state model, its transitions and the
// elapsed-time formatter. Nothing in here is safe for concurrent use; the owner
// of a State serializes access.
package stopwatch

// State is either Paused or Running.
type State interface {
	// Accumulated returns the elapsed milliseconds recorded in the state
	// itself, without reading a clock.
	Accumulated() int64
	Kind() Kind
	isState()
}

// Kind names the two state cases.
type Kind string

const (
	KindPaused  Kind = "paused"
	KindRunning Kind = "running"
)

// Paused is a halted stopwatch. ElapsedMs is the total accumulated run time.
type Paused struct {
	ElapsedMs int64
}

// Running is an advancing stopwatch. ElapsedMs is the time accumulated before
// the segment that began at StartMs.
type Running struct {
	StartMs   int64
	ElapsedMs int64
}

func (p Paused) Accumulated() int64  { return p.ElapsedMs }
func (r Running) Accumulated() int64 { return r.ElapsedMs }

func (Paused) Kind() Kind  { return KindPaused }
func (Running) Kind() Kind { return KindRunning }

func (Paused) isState()  {}
func (Running) isState() {}

// Initial returns the state of a fresh stopwatch. Resetting is assigning this
// value; there is no separate stopped state.
func Initial() State {
	return Paused{ElapsedMs: 0}
}

// Restore rebuilds a State from its stored fields. Unknown kinds and negative
// elapsed values fall back to Initial.
func Restore(kind Kind, startMs, elapsedMs int64) State {
	if elapsedMs < 0 {
		return Initial()
	}
	switch kind {
	case KindRunning:
		return Running{StartMs: startMs, ElapsedMs: elapsedMs}
	case KindPaused:
		return Paused{ElapsedMs: elapsedMs}
	default:
		return Initial()
	}
}
