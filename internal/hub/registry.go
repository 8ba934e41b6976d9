package hub

import "sync"

// registry tracks active connections by ID.
// Membership changes come only from the hub's broadcast loop; the mutex
// lets stats, management handlers, and the supervisor read concurrently.
type registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]*Conn)}
}

func (r *registry) add(c *Conn) {
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()
}

// remove deletes the connection and reports whether it was present,
// so unregister and eviction stay idempotent.
func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

func (r *registry) get(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// snapshot returns a copy of the current membership. Broadcast passes
// iterate the copy, so registration changes never tear an in-flight pass.
func (r *registry) snapshot() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
