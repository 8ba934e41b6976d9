package pulse

import "sync"

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// EventHook is called for every event accepted into the pipeline, after
// its event ID has been assigned. Hooks run on the publishing goroutine,
// so a slow hook slows that publisher and nobody else.
type EventHook func(ev Event)

// Hooks provides access to event callback registration.
type Hooks interface {
	// OnEvent registers a callback invoked for every published event
	OnEvent(fn EventHook)
}

// OnEvent registers a callback invoked for every published event,
// including events published by the producers.
func (c *client) OnEvent(fn EventHook) {
	c.hooks.OnEvent(fn)
}

// hooks manages event callbacks for the pipeline.
type hooks struct {
	mu      sync.RWMutex
	onEvent []EventHook
}

// newHooks creates a new hooks instance.
func newHooks() *hooks {
	return &hooks{}
}

// OnEvent registers a callback for published events.
func (h *hooks) OnEvent(fn EventHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEvent = append(h.onEvent, fn)
}

// fire invokes every registered hook with the event.
func (h *hooks) fire(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEvent {
		fn(ev)
	}
}
