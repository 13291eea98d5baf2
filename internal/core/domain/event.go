package domain

import "time"

// StopEventKind names a lifecycle transition.
type StopEventKind string

const (
	StopCreated   StopEventKind = "created"
	StopUpdated   StopEventKind = "updated"
	StopDeparture StopEventKind = "departure"
	StopDeleted   StopEventKind = "deleted"
)

// StopEvent is published after a successful write to the store.
type StopEvent struct {
	ID         string         `json:"id"`
	Kind       StopEventKind  `json:"kind"`
	LocationID int64          `json:"stop_id"`
	Fields     map[string]any `json:"fields,omitempty"`
	Time       time.Time      `json:"time"`
}
