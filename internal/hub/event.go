// Package hub implements the real-time event broadcasting core.
//
// This package provides the central pipeline for dashboard events: producers
// publish into a bounded dispatch queue, a single broadcast loop fans events
// out to registered connections through per-connection delivery channels, and
// a fixed-size retention buffer supports replay after reconnects. Transport
// adapters (WebSocket, SSE) consume delivery channels and never touch the
// pipeline internals.
package hub

import "time"

// EventType identifies the kind of dashboard event.
type EventType string

// Event types recognized by the hub.
const (
	// Workspace events (from file and git watchers).
	FileChange EventType = "file-change"
	Commit     EventType = "commit"

	// Analysis events (from trackers and scanners).
	ProgressUpdate EventType = "progress-update"
	RiskAlert      EventType = "risk-alert"
	TaskUpdate     EventType = "task-update"

	// Operational events.
	SystemStatus    EventType = "system-status"
	DashboardUpdate EventType = "dashboard-update"
	HealthCheck     EventType = "health-check"

	// Auto-commit pipeline events.
	AutoCommitStart  EventType = "auto-commit-start"
	AutoCommitResult EventType = "auto-commit-result"
	AutoCommitError  EventType = "auto-commit-error"
)

// knownTypes is the fixed catalog of event types.
var knownTypes = []EventType{
	FileChange,
	Commit,
	ProgressUpdate,
	RiskAlert,
	TaskUpdate,
	SystemStatus,
	DashboardUpdate,
	HealthCheck,
	AutoCommitStart,
	AutoCommitResult,
	AutoCommitError,
}

// KnownTypes returns the fixed catalog of event types.
func KnownTypes() []EventType {
	out := make([]EventType, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// Valid reports whether the event type belongs to the catalog.
func (t EventType) Valid() bool {
	for _, known := range knownTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is a single dashboard event flowing through the hub.
//
// ID is assigned by the hub at publish time and is strictly increasing in
// publish order, which makes it usable as a replay cursor. Payload is opaque
// to the hub; producers and consumers agree on its shape per event type.
type Event struct {
	ID        int64     `json:"event_id"`
	Type      EventType `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Source    string    `json:"source,omitempty"`
	ProjectID string    `json:"project_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher is the capability producers use to emit events.
// Publish must not block: implementations drop and count on overload.
type Publisher interface {
	// Publish enqueues an event for broadcast. It returns the assigned
	// event ID and true on success, or zero and false if the event was
	// dropped because the dispatch queue is full.
	Publish(Event) (int64, bool)
}
