package stopwatch

// Engine produces the next state for start and pause requests.
type Engine struct {
	clock      Clock
	calculator *ElapsedTimeCalculator
}

// NewEngine wires an engine and its calculator to the same clock.
func NewEngine(clock Clock) *Engine {
	return &Engine{
		clock:      clock,
		calculator: NewElapsedTimeCalculator(clock),
	}
}

// Calculator exposes the elapsed-time calculator bound to the engine's clock.
func (e *Engine) Calculator() *ElapsedTimeCalculator {
	return e.calculator
}

// ToRunning starts a paused stopwatch. A running one is returned unchanged.
// A nil state is treated as Initial().
func (e *Engine) ToRunning(state State) Running {
	switch s := state.(type) {
	case Running:
		return s
	case Paused:
		return Running{StartMs: e.clock.NowMillis(), ElapsedMs: s.ElapsedMs}
	default:
		return Running{StartMs: e.clock.NowMillis()}
	}
}

// ToPaused freezes a running stopwatch at the current elapsed time. A paused
// one is returned unchanged. A nil state is treated as Initial().
func (e *Engine) ToPaused(state State) Paused {
	paused, _ := e.ToPausedChecked(state)
	return paused
}

// ToPausedChecked is ToPaused that also reports ErrClockRegression when the
// pause reading lies before the running segment's start. The clock is read
// once either way.
func (e *Engine) ToPausedChecked(state State) (Paused, error) {
	switch s := state.(type) {
	case Paused:
		return s, nil
	case Running:
		elapsed, err := e.calculator.CalculateChecked(s)
		return Paused{ElapsedMs: elapsed}, err
	default:
		return Paused{}, nil
	}
}
