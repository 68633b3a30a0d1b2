package api

import (
	"mystopwatch/backend/internal/session"
	"mystopwatch/backend/internal/stopwatch"
)

// StopwatchDTO is the API representation of the stopwatch at one instant.
type StopwatchDTO struct {
	Seq           uint64 `json:"seq"`
	State         string `json:"state"`
	StartMs       *int64 `json:"start_ms,omitempty"`
	AccumulatedMs int64  `json:"accumulated_ms"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	Display       string `json:"display"`
	Action        string `json:"action"`
}

// ConfigResponse describes how the server renders the stopwatch.
type ConfigResponse struct {
	Layout         string `json:"layout"`
	TickMs         int64  `json:"tick_ms"`
	DefaultDisplay string `json:"default_display"`
}

// StopwatchFromSnapshot converts a session snapshot into its DTO.
func StopwatchFromSnapshot(snap session.Snapshot) StopwatchDTO {
	dto := StopwatchDTO{
		Seq:       snap.Seq,
		ElapsedMs: snap.ElapsedMs,
		Display:   snap.Display,
		Action:    string(snap.Action),
	}
	if snap.State == nil {
		dto.State = string(stopwatch.KindPaused)
		return dto
	}
	dto.State = string(snap.State.Kind())
	dto.AccumulatedMs = snap.State.Accumulated()
	if running, ok := snap.State.(stopwatch.Running); ok {
		start := running.StartMs
		dto.StartMs = &start
	}
	return dto
}
