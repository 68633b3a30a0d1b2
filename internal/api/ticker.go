package api

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"mystopwatch/backend/internal/session"
	"mystopwatch/backend/internal/stopwatch"
)

const defaultTick = 100 * time.Millisecond

// Ticker periodically pushes the live elapsed time to websocket clients while
// the stopwatch runs.
type Ticker struct {
	session  *session.Session
	notifier *Notifier
	interval time.Duration
}

// NewTicker builds a ticker. Non-positive intervals use 100ms.
func NewTicker(sess *session.Session, notifier *Notifier, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = defaultTick
	}
	return &Ticker{session: sess, notifier: notifier, interval: interval}
}

// Interval reports the refresh period.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Run broadcasts until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	logrus.WithField("interval", t.interval).Info("stopwatch ticker started")
	for {
		select {
		case <-ctx.Done():
			logrus.Info("stopwatch ticker stopped")
			return nil
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick sends one refresh when the stopwatch runs and someone is listening. A
// refresh computed before a transition that has since been broadcast is
// dropped by the notifier.
func (t *Ticker) Tick() bool {
	if t.notifier.Clients() == 0 {
		return false
	}
	snap := t.session.Snapshot()
	if snap.State == nil || snap.State.Kind() != stopwatch.KindRunning {
		return false
	}
	return t.notifier.Broadcast(StopwatchEvent{Type: EventTick, Stopwatch: StopwatchFromSnapshot(snap)})
}
