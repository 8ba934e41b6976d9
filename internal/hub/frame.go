package hub

import "time"

// FrameKind discriminates what a delivery frame carries.
type FrameKind int

// Frame kinds delivered to connections.
const (
	// FrameEvent carries a published event.
	FrameEvent FrameKind = iota

	// FrameHeartbeat carries a keep-alive tick from the supervisor.
	FrameHeartbeat
)

// Frame is the unit written to a connection's delivery channel.
// Transport adapters map frames onto their wire protocol: events become
// event messages or SSE blocks, heartbeats become heartbeat messages.
type Frame struct {
	Kind  FrameKind
	Event *Event    // set when Kind is FrameEvent
	At    time.Time // set when Kind is FrameHeartbeat
}
