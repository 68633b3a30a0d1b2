package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"mystopwatch/backend/internal/stopwatch"
)

// Action names the control the display offers for a state.
type Action string

const (
	ActionStart Action = "start"
	ActionPause Action = "pause"
)

// Persister stores and restores the current stopwatch state.
type Persister interface {
	SaveState(stopwatch.State) error
	LoadState() (stopwatch.State, error)
}

// Snapshot is a read-only view of the stopwatch at one instant. Seq counts
// state changes since the session was built; views of the same state share it.
type Snapshot struct {
	Seq       uint64
	State     stopwatch.State
	ElapsedMs int64
	Display   string
	Action    Action
}

// Config controls session behaviour.
type Config struct {
	Clock     stopwatch.Clock
	Layout    stopwatch.Layout
	Persister Persister
	// IsEmpty reports whether a persister error means nothing was stored yet.
	IsEmpty func(error) bool
}

// Session owns the single stopwatch state and serializes access to it.
type Session struct {
	mu        sync.RWMutex
	state     stopwatch.State
	clock     stopwatch.Clock
	engine    *stopwatch.Engine
	formatter stopwatch.Formatter
	persister Persister
	listeners []func(Snapshot)
	version   uint64

	notifyMu sync.Mutex
	notified uint64
}

// New builds a session, restoring the persisted state when one exists.
func New(cfg Config) (*Session, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = stopwatch.SystemClock
	}
	s := &Session{
		state:     stopwatch.Initial(),
		clock:     clock,
		engine:    stopwatch.NewEngine(clock),
		formatter: stopwatch.NewFormatter(cfg.Layout),
		persister: cfg.Persister,
	}

	if s.persister != nil {
		state, err := s.persister.LoadState()
		switch {
		case err == nil:
			s.state = state
			logrus.WithFields(logrus.Fields{
				"state":      state.Kind(),
				"elapsed_ms": state.Accumulated(),
			}).Info("restored stopwatch state")
		case cfg.IsEmpty != nil && cfg.IsEmpty(err):
			logrus.Debug("no stored stopwatch state, starting paused at zero")
		default:
			return nil, fmt.Errorf("restore stopwatch state: %w", err)
		}
	}
	return s, nil
}

// OnChange registers fn to be called with the snapshot after every transition.
// Calls are made one at a time in transition order; a transition already
// superseded by a later notified one is skipped.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Formatter returns the formatter used for Display.
func (s *Session) Formatter() stopwatch.Formatter {
	return s.formatter
}

// Start moves the stopwatch to running.
func (s *Session) Start() (Snapshot, error) {
	if err := stopwatch.CheckClock(s.clock); err != nil {
		return s.Snapshot(), err
	}
	return s.apply(func(state stopwatch.State) stopwatch.State {
		return s.engine.ToRunning(state)
	})
}

// Pause freezes the stopwatch at its current elapsed time.
func (s *Session) Pause() (Snapshot, error) {
	if err := stopwatch.CheckClock(s.clock); err != nil {
		return s.Snapshot(), err
	}
	return s.apply(s.pause)
}

// Toggle performs the action the display currently offers. The choice is
// made against the state the transition applies to.
func (s *Session) Toggle() (Snapshot, error) {
	if err := stopwatch.CheckClock(s.clock); err != nil {
		return s.Snapshot(), err
	}
	return s.apply(func(state stopwatch.State) stopwatch.State {
		if _, running := state.(stopwatch.Running); running {
			return s.pause(state)
		}
		return s.engine.ToRunning(state)
	})
}

// Reset returns the stopwatch to its initial paused state.
func (s *Session) Reset() (Snapshot, error) {
	return s.apply(func(stopwatch.State) stopwatch.State {
		return stopwatch.Initial()
	})
}

// Snapshot returns the live view without changing state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	state, version := s.state, s.version
	s.mu.RUnlock()
	return s.snapshotOf(state, version)
}

func (s *Session) pause(state stopwatch.State) stopwatch.State {
	paused, err := s.engine.ToPausedChecked(state)
	if errors.Is(err, stopwatch.ErrClockRegression) {
		logrus.WithError(err).WithField("elapsed_ms", paused.ElapsedMs).
			Warn("clock moved backwards while running, keeping accumulated time")
	}
	return paused
}

func (s *Session) apply(next func(stopwatch.State) stopwatch.State) (Snapshot, error) {
	s.mu.Lock()
	prev := s.state
	state := next(prev)
	changed := state != prev

	var err error
	if changed {
		s.state = state
		s.version++
		// saved under the lock so concurrent transitions hit storage in order
		if s.persister != nil {
			if saveErr := s.persister.SaveState(state); saveErr != nil {
				err = fmt.Errorf("persist stopwatch state: %w", saveErr)
			}
		}
	}
	snap := s.snapshotOf(state, s.version)
	listeners := append([]func(Snapshot){}, s.listeners...)
	s.mu.Unlock()

	if err != nil {
		logrus.WithError(err).WithField("state", state.Kind()).Warn("stopwatch state not persisted")
	}
	if !changed {
		return snap, err
	}

	logrus.WithFields(logrus.Fields{
		"from":       prev.Kind(),
		"to":         state.Kind(),
		"seq":        snap.Seq,
		"elapsed_ms": snap.ElapsedMs,
	}).Debug("stopwatch transition")
	s.notify(snap, listeners)
	return snap, err
}

func (s *Session) notify(snap Snapshot, listeners []func(Snapshot)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Seq <= s.notified {
		return
	}
	s.notified = snap.Seq
	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *Session) snapshotOf(state stopwatch.State, version uint64) Snapshot {
	elapsed := s.engine.Calculator().Elapsed(state)
	action := ActionStart
	if state.Kind() == stopwatch.KindRunning {
		action = ActionPause
	}
	return Snapshot{
		Seq:       version,
		State:     state,
		ElapsedMs: elapsed,
		Display:   s.formatter.Format(elapsed),
		Action:    action,
	}
}
