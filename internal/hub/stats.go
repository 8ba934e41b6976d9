package hub

import "time"

// Stats is a point-in-time snapshot of hub counters. Fields are read
// without pausing the pipeline, so a snapshot taken mid-broadcast may be
// off by in-flight events; consumers treat it as monitoring data.
type Stats struct {
	ActiveConnections   int                 `json:"active_connections"`
	QueueDepth          int                 `json:"queue_depth"`
	QueueCapacity       int                 `json:"queue_capacity"`
	BufferedEvents      int                 `json:"buffered_events"`
	BufferCapacity      int                 `json:"buffer_capacity"`
	TotalPublished      int64               `json:"total_published"`
	DroppedQueueFull    int64               `json:"dropped_queue_full"`
	DroppedSlowConsumer int64               `json:"dropped_slow_consumer"`
	EvictedConnections  int64               `json:"evicted_connections"`
	PublishedByType     map[EventType]int64 `json:"published_by_type"`
	UptimeSeconds       float64             `json:"uptime_seconds"`
}

// ConnInfo describes one active connection for the management surface.
type ConnInfo struct {
	ID           string      `json:"connection_id"`
	Transport    string      `json:"transport"`
	EventTypes   []EventType `json:"event_types"`
	ProjectID    string      `json:"project_id,omitempty"`
	LastEventID  int64       `json:"last_event_id"`
	ConnectedAt  time.Time   `json:"connected_at"`
	LastActivity time.Time   `json:"last_activity_at"`
}

// Stats returns a snapshot of the hub's counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	buffered := h.ring.len()
	bufferCap := h.ring.cap()
	h.mu.Unlock()

	byType := make(map[EventType]int64, len(h.byType))
	for t, counter := range h.byType {
		byType[t] = counter.Load()
	}

	var uptime float64
	if !h.startedAt.IsZero() {
		uptime = time.Since(h.startedAt).Seconds()
	}

	return Stats{
		ActiveConnections:   h.conns.len(),
		QueueDepth:          len(h.queue),
		QueueCapacity:       cap(h.queue),
		BufferedEvents:      buffered,
		BufferCapacity:      bufferCap,
		TotalPublished:      h.published.Load(),
		DroppedQueueFull:    h.droppedQueue.Load(),
		DroppedSlowConsumer: h.droppedSlow.Load(),
		EvictedConnections:  h.evicted.Load(),
		PublishedByType:     byType,
		UptimeSeconds:       uptime,
	}
}

// Connections lists the active connections with their filters and cursors.
func (h *Hub) Connections() []ConnInfo {
	conns := h.conns.snapshot()
	out := make([]ConnInfo, 0, len(conns))
	for _, c := range conns {
		types, projectID := c.subscription()
		out = append(out, ConnInfo{
			ID:           c.id,
			Transport:    c.transport,
			EventTypes:   types,
			ProjectID:    projectID,
			LastEventID:  c.LastEventID(),
			ConnectedAt:  c.connectedAt,
			LastActivity: c.lastSeen(),
		})
	}
	return out
}

// Connection returns management info for a single connection.
func (h *Hub) Connection(id string) (ConnInfo, bool) {
	c, ok := h.conns.get(id)
	if !ok {
		return ConnInfo{}, false
	}
	types, projectID := c.subscription()
	return ConnInfo{
		ID:           c.id,
		Transport:    c.transport,
		EventTypes:   types,
		ProjectID:    projectID,
		LastEventID:  c.LastEventID(),
		ConnectedAt:  c.connectedAt,
		LastActivity: c.lastSeen(),
	}, true
}
