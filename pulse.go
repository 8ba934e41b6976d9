// Package pulse provides the main entry point for the pulse event
// broadcasting system. It offers a high-level interface for running the
// event pipeline in-process: the hub, the workspace producers, and event
// hooks are wired together behind a single client.
//
// Pulse wraps the underlying event hub with additional features including:
// - Workspace producers (files, git, tasks, risk, system) driven by a project file
// - Event hooks observing every published event without a transport
// - Non-blocking publishing with bounded queues and drop counters
// - Flexible configuration through functional options
//
// Example usage:
//
//	// Create a pulse instance from the project file
//	p, err := pulse.New(pulse.WithConfigFile(".pulse.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Observe events as they are published
//	p.OnEvent(func(ev pulse.Event) {
//	    log.Printf("event %d: %s", ev.ID, ev.Type)
//	})
//
//	// Start the pipeline
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop(context.Background())
//
//	// Publish an event alongside the producers
//	p.Publish(pulse.Event{
//	    Type:    pulse.DashboardUpdate,
//	    Payload: map[string]any{"panel": "deploys"},
//	})
package pulse

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/config"
	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/watch"
	"github.com/dashwire/pulse/pkg/logging"
)

// Aliases keep the pipeline's event vocabulary usable from embedder code
// without reaching into internal packages.
type (
	// Event is a single dashboard event flowing through the pipeline.
	Event = hub.Event

	// EventType identifies the kind of dashboard event.
	EventType = hub.EventType

	// Stats is a point-in-time snapshot of pipeline counters.
	Stats = hub.Stats

	// Producer is a long-running event source managed by the client.
	Producer = watch.Producer
)

// Event types recognized by the pipeline.
const (
	FileChange       = hub.FileChange
	Commit           = hub.Commit
	ProgressUpdate   = hub.ProgressUpdate
	RiskAlert        = hub.RiskAlert
	TaskUpdate       = hub.TaskUpdate
	SystemStatus     = hub.SystemStatus
	DashboardUpdate  = hub.DashboardUpdate
	HealthCheck      = hub.HealthCheck
	AutoCommitStart  = hub.AutoCommitStart
	AutoCommitResult = hub.AutoCommitResult
	AutoCommitError  = hub.AutoCommitError
)

// Compile-time interface check to ensure proper implementation.
var _ Publisher = (*client)(nil)

// Publisher accepts events into the pipeline.
type Publisher interface {
	// Publish enqueues an event for broadcast. It returns the assigned
	// event ID and true on success, or zero and false if the event was
	// dropped because the dispatch queue is full.
	Publish(ev Event) (int64, bool)
}

// Publish enqueues the event and fires registered hooks on success. The
// hooks see the event with its assigned ID.
func (c *client) Publish(ev Event) (int64, bool) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	id, ok := c.hub.Publish(ev)
	if ok {
		ev.ID = id
		c.hooks.fire(ev)
	}
	return id, ok
}

// Client runs the event pipeline: hub, producers, and event hooks.
type Client interface {

	// Publisher accepts events into the pipeline
	Publisher

	// Lifecycle starts and stops the pipeline
	Lifecycle

	// Observer provides access to the pipeline and its counters
	Observer

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// file is the resolved project configuration
	file *config.File

	logger *zerolog.Logger

	// pipeline
	hub     *hub.Hub
	manager *watch.Manager

	// hooks fire for every event accepted into the pipeline
	hooks *hooks

	// lifecycle state
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {

	// resolve options
	o := defaults().apply(opts...)

	logger := o.logger
	if logger == nil {
		logger = logging.Default()
	}

	// resolve the project file: explicit config, then file path, then
	// built-in defaults
	file := o.file
	if file == nil {
		if o.configPath != "" {
			loaded, err := config.Load(o.configPath)
			if err != nil {
				return nil, err
			}
			file = loaded
		} else {
			file = config.Default()
			file.Normalize()
		}
	}
	if o.projectID != "" {
		file.Project.ID = o.projectID
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}

	// hub settings: built-in defaults, then the project file, then
	// explicit options
	hubOpts := hub.DefaultOptions()
	if file.Hub.QueueSize > 0 {
		hubOpts.QueueSize = file.Hub.QueueSize
	}
	if file.Hub.RetentionSize > 0 {
		hubOpts.RetentionSize = file.Hub.RetentionSize
	}
	if file.Hub.ConnBuffer > 0 {
		hubOpts.ConnBuffer = file.Hub.ConnBuffer
	}
	if d := file.Hub.HeartbeatInterval.Std(); d > 0 {
		hubOpts.HeartbeatInterval = d
	}
	if d := file.Hub.IdleTimeout.Std(); d > 0 {
		hubOpts.IdleTimeout = d
	}
	o.overrideHub(&hubOpts)

	c := &client{
		options: o,
		file:    file,
		logger:  logger,
		hub:     hub.New(hubOpts, logger),
		hooks:   newHooks(),
	}

	// Producers publish through the client rather than the hub directly
	// so registered hooks observe producer events too.
	producers := buildProducers(file, c, logger)
	for _, build := range o.producers {
		producers = append(producers, build(c))
	}
	c.manager = watch.NewManager(logger, producers...)

	logger.Debug().
		Str("project_id", file.Project.ID).
		Int("producers", len(producers)).
		Int("queue_size", hubOpts.QueueSize).
		Int("retention_size", hubOpts.RetentionSize).
		Msg("Pulse client created")

	return c, nil
}
