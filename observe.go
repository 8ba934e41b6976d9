package pulse

import "github.com/dashwire/pulse/internal/hub"

// Compile-time interface check to ensure proper implementation.
var _ Observer = (*client)(nil)

// Observer provides access to the pipeline and its counters.
type Observer interface {
	// Hub exposes the underlying pipeline for transport adapters
	Hub() *hub.Hub

	// Stats returns a snapshot of pipeline counters
	Stats() Stats
}

// Hub returns the underlying event hub. Transport adapters attach their
// connections through it.
func (c *client) Hub() *hub.Hub {
	return c.hub
}

// Stats returns a snapshot of the pipeline's counters.
func (c *client) Stats() Stats {
	return c.hub.Stats()
}
