package hub

import (
	"context"
	"time"
)

// runSupervisor drives connection supervision: on every tick it asks the
// broadcast loop to sweep, which heartbeats live connections and evicts
// idle ones. Sweeps go through the loop so eviction uses the same detach
// path as a client disconnect.
func (h *Hub) runSupervisor(ctx context.Context) {
	ticker := time.NewTicker(h.opts.HeartbeatInterval)
	defer ticker.Stop()

	h.logger.Debug().
		Dur("interval", h.opts.HeartbeatInterval).
		Dur("idle_timeout", h.opts.IdleTimeout).
		Msg("Connection supervisor started")

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			select {
			case h.sweep <- now:
			default:
				// Loop is busy with a previous sweep, skip this tick
			}
		}
	}
}
