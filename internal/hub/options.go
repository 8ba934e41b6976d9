package hub

import (
	"time"

	"github.com/dashwire/pulse/pkg/constants"
)

// Options configures a Hub.
type Options struct {
	// QueueSize bounds the dispatch queue. Publish drops when it is full.
	QueueSize int

	// RetentionSize bounds the replay buffer.
	RetentionSize int

	// ConnBuffer bounds each connection's delivery channel. Broadcasts
	// drop per connection when it is full.
	ConnBuffer int

	// HeartbeatInterval is the supervisor sweep period. Zero or negative
	// disables heartbeats and idle eviction.
	HeartbeatInterval time.Duration

	// IdleTimeout is how long a connection may stay silent before the
	// supervisor evicts it.
	IdleTimeout time.Duration
}

// DefaultOptions returns the hub defaults.
func DefaultOptions() Options {
	return Options{
		QueueSize:         256,
		RetentionSize:     150,
		ConnBuffer:        64,
		HeartbeatInterval: constants.HeartbeatInterval,
		IdleTimeout:       constants.IdleConnectionTimeout,
	}
}

// withDefaults fills zero-valued fields so partially filled Options work.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.QueueSize <= 0 {
		o.QueueSize = def.QueueSize
	}
	if o.RetentionSize <= 0 {
		o.RetentionSize = def.RetentionSize
	}
	if o.ConnBuffer <= 0 {
		o.ConnBuffer = def.ConnBuffer
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = def.IdleTimeout
	}
	return o
}
