package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mystopwatch/backend/internal/stopwatch"
)

type manualClock struct {
	now  atomic.Int64
	fail atomic.Bool
}

func (c *manualClock) NowMillis() int64 { return c.now.Load() }

func (c *manualClock) Check() error {
	if c.fail.Load() {
		return errors.New("time source offline")
	}
	return nil
}

var errEmpty = errors.New("empty")

type memoryPersister struct {
	state   stopwatch.State
	saves   int
	saveErr error
	loadErr error
}

func (m *memoryPersister) SaveState(state stopwatch.State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.state = state
	return nil
}

func (m *memoryPersister) LoadState() (stopwatch.State, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.state == nil {
		return nil, errEmpty
	}
	return m.state, nil
}

func isEmpty(err error) bool { return errors.Is(err, errEmpty) }

func newTestSession(t *testing.T, clock *manualClock, persister Persister) *Session {
	t.Helper()
	s, err := New(Config{Clock: clock, Layout: stopwatch.LayoutClock, Persister: persister, IsEmpty: isEmpty})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestSessionStartPauseFlow(t *testing.T) {
	clock := &manualClock{}
	clock.now.Store(1000)
	persister := &memoryPersister{}
	s := newTestSession(t, clock, persister)

	snap := s.Snapshot()
	if snap.Display != stopwatch.DefaultTime || snap.Action != ActionStart {
		t.Fatalf("unexpected initial snapshot %+v", snap)
	}

	snap, err := s.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.State != (stopwatch.Running{StartMs: 1000}) {
		t.Fatalf("expected running from 1000 got %#v", snap.State)
	}
	if snap.Action != ActionPause {
		t.Fatalf("expected pause action got %s", snap.Action)
	}

	clock.now.Store(3000)
	if got := s.Snapshot().ElapsedMs; got != 2000 {
		t.Fatalf("expected 2000 got %d", got)
	}

	snap, err = s.Pause()
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if snap.State != (stopwatch.Paused{ElapsedMs: 2000}) {
		t.Fatalf("expected paused at 2000 got %#v", snap.State)
	}
	if snap.Display != "00:02:00" {
		t.Fatalf("expected 00:02:00 got %s", snap.Display)
	}

	clock.now.Store(9000)
	if got := s.Snapshot().ElapsedMs; got != 2000 {
		t.Fatalf("paused stopwatch advanced to %d", got)
	}
	if persister.saves != 2 {
		t.Fatalf("expected 2 saves got %d", persister.saves)
	}
	if persister.state != (stopwatch.Paused{ElapsedMs: 2000}) {
		t.Fatalf("unexpected persisted state %#v", persister.state)
	}
}

func TestSessionRepeatedActionsDoNotPersist(t *testing.T) {
	clock := &manualClock{}
	persister := &memoryPersister{}
	s := newTestSession(t, clock, persister)

	var changes int
	s.OnChange(func(Snapshot) { changes++ })

	if _, err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.now.Store(50)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start again: %v", err)
	}

	if persister.saves != 1 {
		t.Fatalf("expected 1 save got %d", persister.saves)
	}
	if changes != 1 {
		t.Fatalf("expected 1 change notification got %d", changes)
	}
}

func TestSessionToggleAndReset(t *testing.T) {
	clock := &manualClock{}
	clock.now.Store(100)
	s := newTestSession(t, clock, nil)

	snap, err := s.Toggle()
	if err != nil || snap.State.Kind() != stopwatch.KindRunning {
		t.Fatalf("toggle to running: %+v %v", snap, err)
	}
	clock.now.Store(350)
	snap, err = s.Toggle()
	if err != nil || snap.State != (stopwatch.Paused{ElapsedMs: 250}) {
		t.Fatalf("toggle to paused: %+v %v", snap, err)
	}

	snap, err = s.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if snap.State != stopwatch.Initial() || snap.Display != stopwatch.DefaultTime {
		t.Fatalf("unexpected reset snapshot %+v", snap)
	}
}

func TestSessionResetWhileRunning(t *testing.T) {
	clock := &manualClock{}
	s := newTestSession(t, clock, nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.now.Store(4000)
	snap, err := s.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if snap.State != stopwatch.Initial() {
		t.Fatalf("expected initial state got %#v", snap.State)
	}
}

func TestSessionRestore(t *testing.T) {
	clock := &manualClock{}
	clock.now.Store(6000)
	persister := &memoryPersister{state: stopwatch.Running{StartMs: 5000, ElapsedMs: 700}}
	s := newTestSession(t, clock, persister)

	if got := s.Snapshot().ElapsedMs; got != 1700 {
		t.Fatalf("expected 1700 got %d", got)
	}
}

func TestSessionRestoreFailure(t *testing.T) {
	persister := &memoryPersister{loadErr: errors.New("disk on fire")}
	if _, err := New(Config{Clock: &manualClock{}, Persister: persister, IsEmpty: isEmpty}); err == nil {
		t.Fatal("expected restore error")
	}
}

func TestSessionPersistFailureStillAdvances(t *testing.T) {
	clock := &manualClock{}
	persister := &memoryPersister{saveErr: errors.New("read-only")}
	s := newTestSession(t, clock, persister)

	snap, err := s.Start()
	if err == nil {
		t.Fatal("expected persist error")
	}
	if snap.State.Kind() != stopwatch.KindRunning {
		t.Fatalf("expected running got %s", snap.State.Kind())
	}
	if s.Snapshot().State.Kind() != stopwatch.KindRunning {
		t.Fatal("in-memory state did not advance")
	}
}

func TestSessionClockUnavailable(t *testing.T) {
	clock := &manualClock{}
	clock.fail.Store(true)
	s := newTestSession(t, clock, nil)

	snap, err := s.Start()
	if !errors.Is(err, stopwatch.ErrClockUnavailable) {
		t.Fatalf("expected ErrClockUnavailable got %v", err)
	}
	if snap.State != stopwatch.Initial() {
		t.Fatalf("state changed despite clock failure: %#v", snap.State)
	}
}

func TestSessionPauseAfterClockRegression(t *testing.T) {
	clock := &manualClock{}
	clock.now.Store(10_000)
	s := newTestSession(t, clock, nil)
	if _, err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.now.Store(4_000)
	snap, err := s.Pause()
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if snap.State != (stopwatch.Paused{ElapsedMs: 0}) {
		t.Fatalf("expected clamp to accumulated time got %#v", snap.State)
	}
}

func TestSessionNotifiesInTransitionOrder(t *testing.T) {
	clock := &manualClock{}
	clock.now.Store(1000)
	s := newTestSession(t, clock, &memoryPersister{})

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []Snapshot
	s.OnChange(func(snap Snapshot) {
		if snap.State.Kind() == stopwatch.KindRunning {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = s.Start()
	}()
	<-entered

	clock.now.Store(4000)
	go func() {
		defer wg.Done()
		_, _ = s.Pause()
	}()
	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().State.Kind() != stopwatch.KindPaused {
		if time.Now().After(deadline) {
			t.Fatal("pause never applied")
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("expected notifications")
	}
	last := seen[len(seen)-1]
	if last.State != s.Snapshot().State {
		t.Fatalf("expected last notification %v got %v", s.Snapshot().State, last.State)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Seq <= seen[i-1].Seq {
			t.Fatalf("expected increasing seq got %d after %d", seen[i].Seq, seen[i-1].Seq)
		}
	}
}

func TestSessionToggleDecidesAtomically(t *testing.T) {
	clock := &manualClock{}
	clock.now.Store(1000)
	persister := &memoryPersister{}
	s := newTestSession(t, clock, persister)

	const toggles = 50
	var wg sync.WaitGroup
	wg.Add(toggles)
	for i := 0; i < toggles; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.Toggle(); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.State.Kind() != stopwatch.KindPaused {
		t.Fatalf("expected paused after %d toggles got %v", toggles, snap.State.Kind())
	}
	if snap.Seq != toggles {
		t.Fatalf("expected %d transitions got %d", toggles, snap.Seq)
	}
	if persister.saves != toggles {
		t.Fatalf("expected %d saves got %d", toggles, persister.saves)
	}
}
