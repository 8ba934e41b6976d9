package pulse

import (
	"context"

	"github.com/dashwire/pulse/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ Lifecycle = (*client)(nil)

// Lifecycle starts and stops the event pipeline.
type Lifecycle interface {
	// Start launches the broadcast loop and the configured producers.
	// The pipeline runs until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop shuts the pipeline down and waits for the broadcast loop and
	// producers to exit, up to the context deadline.
	Stop(ctx context.Context) error

	// Running reports whether the pipeline is active
	Running() bool
}

// Start launches the broadcast loop and the configured producers.
func (c *client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return errors.ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go func(done chan struct{}) {
		c.hub.Run(runCtx)
		close(done)
	}(c.done)
	c.manager.Start(runCtx)

	c.logger.Info().
		Str("project_id", c.file.Project.ID).
		Strs("producers", c.file.EnabledProducers()).
		Msg("Pulse started")
	return nil
}

// Stop cancels the pipeline and waits for it to drain.
func (c *client) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	stopped := make(chan struct{})
	go func() {
		c.manager.Wait()
		<-done
		close(stopped)
	}()

	select {
	case <-stopped:
		c.logger.Info().Msg("Pulse stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn().Msg("Pulse shutdown timed out")
		return ctx.Err()
	}
}

// Running reports whether the broadcast loop is active.
func (c *client) Running() bool {
	return c.hub.Running()
}
