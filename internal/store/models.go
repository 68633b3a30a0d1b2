package store

import (
	"time"

	"mystopwatch/backend/internal/stopwatch"
)

// stateRowID is the primary key of the single persisted stopwatch row.
const stateRowID = 1

// StopwatchState is the persisted form of the current stopwatch state.
type StopwatchState struct {
	ID        uint   `gorm:"primaryKey"`
	Kind      string `gorm:"size:16"`
	StartMs   int64
	ElapsedMs int64
	UpdatedAt time.Time
}

// StateFromModel converts a stored row into a stopwatch.State.
func StateFromModel(row StopwatchState) stopwatch.State {
	return stopwatch.Restore(stopwatch.Kind(row.Kind), row.StartMs, row.ElapsedMs)
}

// ModelFromState converts a stopwatch.State into its stored row.
func ModelFromState(state stopwatch.State) StopwatchState {
	row := StopwatchState{ID: stateRowID}
	switch s := state.(type) {
	case stopwatch.Running:
		row.Kind = string(stopwatch.KindRunning)
		row.StartMs = s.StartMs
		row.ElapsedMs = s.ElapsedMs
	case stopwatch.Paused:
		row.Kind = string(stopwatch.KindPaused)
		row.ElapsedMs = s.ElapsedMs
	default:
		row.Kind = string(stopwatch.KindPaused)
	}
	return row
}
