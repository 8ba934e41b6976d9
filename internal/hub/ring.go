package hub

// ring is the fixed-capacity retention buffer behind replay.
// Events are appended in publish order and the oldest entry is evicted once
// capacity is reached, so the buffer always holds the most recent events in
// ascending ID order. The ring does no locking; the hub serializes access.
type ring struct {
	buf   []Event
	start int
	count int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Event, capacity)}
}

// append adds an event, evicting the oldest when full.
func (r *ring) append(ev Event) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = ev
		r.count++
		return
	}
	r.buf[r.start] = ev
	r.start = (r.start + 1) % len(r.buf)
}

// since returns retained events with ID greater than after, in ascending
// order. A cursor older than the oldest retained event simply yields the
// whole buffer; callers treat the resulting gap as lost history.
func (r *ring) since(after int64) []Event {
	out := make([]Event, 0, r.count)
	for i := 0; i < r.count; i++ {
		ev := r.buf[(r.start+i)%len(r.buf)]
		if ev.ID > after {
			out = append(out, ev)
		}
	}
	return out
}

func (r *ring) len() int {
	return r.count
}

func (r *ring) cap() int {
	return len(r.buf)
}
