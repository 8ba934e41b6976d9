// Package filter provides query parameter parsing for the event stream and
// management endpoints.
package filter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/pkg/errors"
)

// Stream holds the subscription parameters of a streaming request.
type Stream struct {
	// EventTypes restricts delivery to the listed types. Empty means all.
	EventTypes []hub.EventType

	// ProjectID scopes delivery to one project. Events without a project
	// still pass. Empty disables project scoping.
	ProjectID string

	// LastEventID is the client's replay cursor. Negative when the client
	// did not ask for a replay.
	LastEventID int64
}

// ParseStream extracts stream parameters from the request query.
//
//	event_types   comma-separated list of event types
//	project_id    project scope
//	last_event_id replay cursor (decimal event ID)
//
// Unknown event types and malformed cursors are rejected so a typo fails
// loudly instead of silently subscribing to nothing.
func ParseStream(r *http.Request) (Stream, error) {
	q := r.URL.Query()

	s := Stream{
		ProjectID:   q.Get("project_id"),
		LastEventID: -1,
	}

	if raw := q.Get("event_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			typ := hub.EventType(name)
			if !typ.Valid() {
				return Stream{}, errors.NewValidationError("event_types", name, "unknown event type")
			}
			s.EventTypes = append(s.EventTypes, typ)
		}
	}

	if raw := q.Get("last_event_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return Stream{}, errors.NewValidationError("last_event_id", raw, "must be a non-negative integer")
		}
		s.LastEventID = id
	}

	return s, nil
}

// Replay reports whether the client supplied a replay cursor.
func (s Stream) Replay() bool {
	return s.LastEventID >= 0
}
