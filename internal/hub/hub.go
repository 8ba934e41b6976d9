package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/pkg/errors"
)

// dropLogInterval rate-limits overload warnings so a sustained burst does
// not flood the log with one line per dropped event.
const dropLogInterval = 10 * time.Second

// Hub is the central event pipeline.
//
// Producers call Publish concurrently; a single broadcast loop drains the
// dispatch queue and fans events out to registered connections. Registration
// changes flow through the loop as commands, which keeps channel close
// ordering in one place: a connection always leaves the registry before its
// delivery channel is closed, so a concurrent broadcast pass can at worst
// drop a frame, never write to a closed channel.
type Hub struct {
	opts   Options
	logger *zerolog.Logger

	queue      chan Event
	register   chan registration
	unregister chan *Conn
	resume     chan resumeRequest
	sweep      chan time.Time

	// mu guards ID assignment and the retention ring. It is held only for
	// the enqueue-and-append step of Publish and the copy step of replay,
	// never across fan-out.
	mu          sync.Mutex
	nextID      int64
	ring        *ring
	lastDropLog time.Time

	conns *registry

	// lastDispatched is owned by the broadcast loop. Replay walks the ring
	// only up to it; anything newer is still in the queue and will reach
	// the connection as a live event.
	lastDispatched int64

	published    atomic.Int64
	droppedQueue atomic.Int64
	droppedSlow  atomic.Int64
	evicted      atomic.Int64
	byType       map[EventType]*atomic.Int64

	startedAt time.Time
	running   atomic.Bool
	stopped   atomic.Bool
}

type registration struct {
	conn *Conn

	// lastEventID is the client's replay cursor, or a negative value when
	// the client is connecting fresh.
	lastEventID int64
}

type resumeRequest struct {
	conn        *Conn
	lastEventID int64
}

// New creates a hub with the given options. Call Run to start it.
func New(opts Options, logger *zerolog.Logger) *Hub {
	opts = opts.withDefaults()
	byType := make(map[EventType]*atomic.Int64, len(knownTypes))
	for _, t := range knownTypes {
		byType[t] = &atomic.Int64{}
	}
	return &Hub{
		opts:       opts,
		logger:     logger,
		queue:      make(chan Event, opts.QueueSize),
		register:   make(chan registration, 16),
		unregister: make(chan *Conn, 16),
		resume:     make(chan resumeRequest, 16),
		sweep:      make(chan time.Time, 1),
		ring:       newRing(opts.RetentionSize),
		conns:      newRegistry(),
		byType:     byType,
	}
}

// Run starts the broadcast loop and, when heartbeats are enabled, the
// connection supervisor. It blocks until the context is cancelled, then
// closes every registered connection.
func (h *Hub) Run(ctx context.Context) {
	h.startedAt = time.Now()
	h.running.Store(true)
	defer h.running.Store(false)

	if h.opts.HeartbeatInterval > 0 {
		go h.runSupervisor(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case reg := <-h.register:
			h.attach(reg)

		case c := <-h.unregister:
			h.detach(c, "client disconnect")

		case req := <-h.resume:
			h.replay(req.conn, req.lastEventID)

		case ev := <-h.queue:
			h.dispatch(ev)

		case now := <-h.sweep:
			h.sweepConnections(now)
		}
	}
}

// Running reports whether the broadcast loop is active.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// StartedAt returns when the broadcast loop started.
func (h *Hub) StartedAt() time.Time {
	return h.startedAt
}

// Publish assigns the next event ID and enqueues the event for broadcast.
// It never blocks: when the dispatch queue is full the event is dropped,
// counted, and (0, false) is returned. IDs are strictly increasing in
// enqueue order and dropped events consume no ID.
func (h *Hub) Publish(ev Event) (int64, bool) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	h.mu.Lock()
	ev.ID = h.nextID + 1
	select {
	case h.queue <- ev:
		h.nextID = ev.ID
		h.ring.append(ev)
		h.mu.Unlock()

		h.published.Add(1)
		if counter, ok := h.byType[ev.Type]; ok {
			counter.Add(1)
		}
		return ev.ID, true

	default:
		logDrop := time.Since(h.lastDropLog) >= dropLogInterval
		if logDrop {
			h.lastDropLog = time.Now()
		}
		h.mu.Unlock()

		h.droppedQueue.Add(1)
		if logDrop {
			h.logger.Warn().
				Str("event_type", string(ev.Type)).
				Int64("dropped_total", h.droppedQueue.Load()).
				Msg("Dispatch queue full, event dropped")
		}
		return 0, false
	}
}

// NewConn creates an unregistered connection with the given filters.
func (h *Hub) NewConn(transport string, types []EventType, projectID string) *Conn {
	return newConn(transport, types, projectID, h.opts.ConnBuffer)
}

// Register attaches the connection to the hub. When lastEventID is
// non-negative, retained events after it are replayed to the connection
// before any live event is delivered. Pass a negative lastEventID for a
// fresh connection.
//
// The command channels are buffered, so registering before Run starts
// queues the connection instead of blocking.
func (h *Hub) Register(c *Conn, lastEventID int64) error {
	if h.stopped.Load() {
		return errors.ErrHubStopped
	}
	h.register <- registration{conn: c, lastEventID: lastEventID}
	return nil
}

// Unregister detaches the connection. The hub removes it from the registry
// and then closes its delivery channel; calling Unregister twice, or for an
// already evicted connection, is harmless.
func (h *Hub) Unregister(c *Conn) {
	if h.stopped.Load() {
		return
	}
	h.unregister <- c
}

// Resume replays retained events after lastEventID to an already registered
// connection, honoring its filters. Events older than the retention window
// are gone; the client observes the gap through event IDs.
func (h *Hub) Resume(c *Conn, lastEventID int64) error {
	if h.stopped.Load() {
		return errors.ErrHubStopped
	}
	h.resume <- resumeRequest{conn: c, lastEventID: lastEventID}
	return nil
}

// UpdateSubscription atomically replaces a connection's filters. Unknown
// event types are rejected without touching the current subscription.
func (h *Hub) UpdateSubscription(connID string, types []EventType, projectID string) error {
	for _, t := range types {
		if !t.Valid() {
			return errors.NewValidationError("event_types", string(t), "unknown event type")
		}
	}
	c, ok := h.conns.get(connID)
	if !ok {
		return errors.NewNotFoundError("connection", connID)
	}
	c.setSubscription(types, projectID)
	h.logger.Debug().
		Str("connection_id", connID).
		Int("event_types", len(types)).
		Str("project_id", projectID).
		Msg("Subscription updated")
	return nil
}

// attach adds the connection and replays missed events when a cursor was
// supplied. The loop processes queue events and registrations one at a
// time, so replayed events always precede live deliveries.
func (h *Hub) attach(reg registration) {
	h.conns.add(reg.conn)
	if reg.lastEventID >= 0 {
		h.replay(reg.conn, reg.lastEventID)
	}
	h.logger.Info().
		Str("connection_id", reg.conn.id).
		Str("transport", reg.conn.transport).
		Int("total_connections", h.conns.len()).
		Msg("Connection registered")
}

// detach removes the connection from the registry first and closes the
// delivery channel after, so no later broadcast pass can see it.
func (h *Hub) detach(c *Conn, reason string) {
	if !h.conns.remove(c.id) {
		return
	}
	close(c.send)
	h.logger.Info().
		Str("connection_id", c.id).
		Str("transport", c.transport).
		Str("reason", reason).
		Int("total_connections", h.conns.len()).
		Msg("Connection unregistered")
}

// dispatch fans one event out to every matching connection.
func (h *Hub) dispatch(ev Event) {
	h.lastDispatched = ev.ID
	for _, c := range h.conns.snapshot() {
		if !c.matches(&ev) {
			continue
		}
		h.deliver(c, Frame{Kind: FrameEvent, Event: &ev})
	}
}

// deliver writes a frame to one connection without blocking. A full
// delivery channel costs that connection the frame and nobody else
// anything.
func (h *Hub) deliver(c *Conn, f Frame) {
	select {
	case c.send <- f:
		if f.Kind == FrameEvent {
			c.markDelivered(f.Event.ID)
		}
	default:
		if f.Kind == FrameEvent {
			h.droppedSlow.Add(1)
			h.logger.Debug().
				Str("connection_id", c.id).
				Int64("event_id", f.Event.ID).
				Msg("Delivery channel full, event dropped for connection")
		}
	}
}

// replay delivers retained events after lastEventID to one connection,
// stopping at the last dispatched ID. Newer events are still in the queue
// and arrive through the normal broadcast path, so nothing is duplicated.
func (h *Hub) replay(c *Conn, lastEventID int64) {
	h.mu.Lock()
	pending := h.ring.since(lastEventID)
	h.mu.Unlock()

	replayed := 0
	for i := range pending {
		if pending[i].ID > h.lastDispatched {
			break
		}
		if !c.matches(&pending[i]) {
			continue
		}
		h.deliver(c, Frame{Kind: FrameEvent, Event: &pending[i]})
		replayed++
	}
	h.logger.Debug().
		Str("connection_id", c.id).
		Int64("last_event_id", lastEventID).
		Int("replayed", replayed).
		Msg("Replayed retained events")
}

// sweepConnections evicts idle connections and heartbeats the rest.
func (h *Hub) sweepConnections(now time.Time) {
	for _, c := range h.conns.snapshot() {
		if now.Sub(c.lastSeen()) > h.opts.IdleTimeout {
			h.evicted.Add(1)
			h.detach(c, "idle timeout")
			continue
		}
		h.deliver(c, Frame{Kind: FrameHeartbeat, At: now})
	}
}

// shutdown closes every connection on loop exit, including registrations
// still queued in the command channel.
func (h *Hub) shutdown() {
	h.stopped.Store(true)
	for _, c := range h.conns.snapshot() {
		h.detach(c, "hub shutdown")
	}
	for {
		select {
		case reg := <-h.register:
			close(reg.conn.send)
		default:
			h.logger.Info().Msg("Event hub shut down")
			return
		}
	}
}
