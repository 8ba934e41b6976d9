package hub

import "testing"

func TestEventType_Valid(t *testing.T) {
	for _, typ := range KnownTypes() {
		if !typ.Valid() {
			t.Errorf("known type %s reported invalid", typ)
		}
	}
	if EventType("nonsense").Valid() {
		t.Error("unknown type reported valid")
	}
	if EventType("").Valid() {
		t.Error("empty type reported valid")
	}
}

func TestConn_Matches(t *testing.T) {
	tests := []struct {
		name      string
		types     []EventType
		projectID string
		event     Event
		want      bool
	}{
		{"no filters", nil, "", Event{Type: Commit}, true},
		{"type match", []EventType{Commit}, "", Event{Type: Commit}, true},
		{"type mismatch", []EventType{Commit}, "", Event{Type: FileChange}, false},
		{"project match", nil, "p1", Event{Type: Commit, ProjectID: "p1"}, true},
		{"project mismatch", nil, "p1", Event{Type: Commit, ProjectID: "p2"}, false},
		{"unscoped event passes project filter", nil, "p1", Event{Type: Commit}, true},
		{"both filters", []EventType{Commit}, "p1", Event{Type: Commit, ProjectID: "p1"}, true},
		{"type passes project fails", []EventType{Commit}, "p1", Event{Type: Commit, ProjectID: "p2"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConn("websocket", tt.types, tt.projectID, 1)
			if got := c.matches(&tt.event); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConn_MarkDeliveredMonotonic(t *testing.T) {
	c := newConn("sse", nil, "", 1)
	c.markDelivered(5)
	c.markDelivered(3)
	if got := c.LastEventID(); got != 5 {
		t.Errorf("cursor moved backwards to %d", got)
	}
	c.markDelivered(7)
	if got := c.LastEventID(); got != 7 {
		t.Errorf("cursor = %d, want 7", got)
	}
}
