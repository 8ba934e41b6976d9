package pulse

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/config"
	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/watch"
)

// Option is a function that configures a Client.
type Option func(*options)

// options holds the configured settings for a Client.
type options struct {
	logger     *zerolog.Logger
	file       *config.File
	configPath string
	projectID  string

	queueSize         int
	retentionSize     int
	connBuffer        int
	heartbeatInterval time.Duration
	heartbeatSet      bool
	idleTimeout       time.Duration

	producers []func(pub Publisher) watch.Producer
}

// defaults returns the default options.
func defaults() *options {
	return &options{}
}

// apply applies the given options in order and returns the result.
func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// overrideHub writes the explicitly configured hub settings over cfg.
func (o *options) overrideHub(cfg *hub.Options) {
	if o.queueSize > 0 {
		cfg.QueueSize = o.queueSize
	}
	if o.retentionSize > 0 {
		cfg.RetentionSize = o.retentionSize
	}
	if o.connBuffer > 0 {
		cfg.ConnBuffer = o.connBuffer
	}
	if o.heartbeatSet {
		cfg.HeartbeatInterval = o.heartbeatInterval
	}
	if o.idleTimeout > 0 {
		cfg.IdleTimeout = o.idleTimeout
	}
}

// WithLogger configures the logger used by the pipeline and producers.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConfig configures the client from an already loaded project file.
func WithConfig(file *config.File) Option {
	return func(o *options) {
		o.file = file
	}
}

// WithConfigFile configures the client to load the project file at path.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithProjectID overrides the project identifier stamped on produced events.
func WithProjectID(id string) Option {
	return func(o *options) {
		o.projectID = id
	}
}

// WithQueueSize configures the dispatch queue bound.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithRetentionSize configures how many events the replay buffer retains.
func WithRetentionSize(n int) Option {
	return func(o *options) {
		o.retentionSize = n
	}
}

// WithConnBuffer configures each connection's delivery channel bound.
func WithConnBuffer(n int) Option {
	return func(o *options) {
		o.connBuffer = n
	}
}

// WithHeartbeatInterval configures the supervisor sweep period.
// Zero or negative disables heartbeats and idle eviction.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(o *options) {
		o.heartbeatInterval = interval
		o.heartbeatSet = true
	}
}

// WithIdleTimeout configures how long a connection may stay silent before
// the supervisor evicts it.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = timeout
	}
}

// WithProducer registers an additional producer to run alongside the ones
// enabled in the project file. The builder receives the client's publisher,
// so events from custom producers flow through registered hooks too.
func WithProducer(build func(pub Publisher) Producer) Option {
	return func(o *options) {
		if build == nil {
			return
		}
		o.producers = append(o.producers, build)
	}
}
