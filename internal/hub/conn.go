package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is a registered consumer connection.
//
// The hub owns the delivery channel: only the broadcast loop writes to it
// and only the broadcast loop closes it, after the connection has left the
// registry. Transport adapters read frames via Frames and report liveness
// via Touch. Subscription fields are guarded by the connection's own mutex
// so filter updates swap atomically with respect to in-flight broadcasts.
type Conn struct {
	id          string
	transport   string
	send        chan Frame
	connectedAt time.Time

	mu           sync.RWMutex
	types        map[EventType]struct{}
	projectID    string
	lastEventID  int64
	lastActivity time.Time
}

func newConn(transport string, types []EventType, projectID string, buffer int) *Conn {
	now := time.Now()
	c := &Conn{
		id:           uuid.NewString(),
		transport:    transport,
		send:         make(chan Frame, buffer),
		connectedAt:  now,
		lastActivity: now,
	}
	c.setSubscription(types, projectID)
	return c
}

// ID returns the unique connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// Transport returns the transport label ("websocket" or "sse").
func (c *Conn) Transport() string {
	return c.transport
}

// Frames returns the delivery channel. The channel is closed by the hub
// when the connection is unregistered or the hub shuts down.
func (c *Conn) Frames() <-chan Frame {
	return c.send
}

// LastEventID returns the highest event ID delivered to this connection.
func (c *Conn) LastEventID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastEventID
}

// Touch records client activity, deferring idle eviction.
func (c *Conn) Touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

func (c *Conn) lastSeen() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActivity
}

// setSubscription atomically replaces the connection's filters.
// An empty type list subscribes to all event types; an empty project ID
// disables project filtering.
func (c *Conn) setSubscription(types []EventType, projectID string) {
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	c.mu.Lock()
	c.types = set
	c.projectID = projectID
	c.mu.Unlock()
}

// subscription returns the current filters as a sorted-insertion copy.
func (c *Conn) subscription() ([]EventType, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]EventType, 0, len(c.types))
	for _, known := range knownTypes {
		if _, ok := c.types[known]; ok {
			types = append(types, known)
		}
	}
	return types, c.projectID
}

// matches reports whether the event passes this connection's filters.
// Events without a project ID pass any project filter.
func (c *Conn) matches(ev *Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.types) > 0 {
		if _, ok := c.types[ev.Type]; !ok {
			return false
		}
	}
	if c.projectID != "" && ev.ProjectID != "" && ev.ProjectID != c.projectID {
		return false
	}
	return true
}

// markDelivered advances the replay cursor after a successful delivery.
func (c *Conn) markDelivered(id int64) {
	c.mu.Lock()
	if id > c.lastEventID {
		c.lastEventID = id
	}
	c.mu.Unlock()
}
