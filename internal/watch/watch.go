// Package watch ships the event producers that feed the hub.
//
// Each producer is an independent task that observes one aspect of a
// project workspace (files, git history, tasks, system load) and publishes
// typed events through the hub's non-blocking Publish. Producers never see
// the hub internals or each other; they hold only the Publisher capability.
package watch

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Producer is a long-running event source.
type Producer interface {
	// Name identifies the producer in logs and configuration.
	Name() string

	// Run publishes events until the context is cancelled. A nil or
	// context error return is a clean stop.
	Run(ctx context.Context) error
}

// Manager runs a set of producers and isolates their failures. A producer
// that panics or returns an error is logged and stays down; the others
// keep running.
type Manager struct {
	producers []Producer
	logger    *zerolog.Logger
	wg        sync.WaitGroup
}

// NewManager creates a manager for the given producers.
func NewManager(logger *zerolog.Logger, producers ...Producer) *Manager {
	return &Manager{
		producers: producers,
		logger:    logger,
	}
}

// Add appends a producer. Call before Start.
func (m *Manager) Add(p Producer) {
	m.producers = append(m.producers, p)
}

// Producers returns the managed producers.
func (m *Manager) Producers() []Producer {
	return m.producers
}

// Start launches every producer in its own goroutine and returns.
func (m *Manager) Start(ctx context.Context) {
	for _, p := range m.producers {
		m.wg.Add(1)
		go m.run(ctx, p)
	}
	m.logger.Info().Int("producers", len(m.producers)).Msg("Producers started")
}

// Wait blocks until every producer has stopped.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, p Producer) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("producer", p.Name()).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Producer panicked")
		}
	}()

	m.logger.Debug().Str("producer", p.Name()).Msg("Producer starting")
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error().
			Err(err).
			Str("producer", p.Name()).
			Msg("Producer stopped with error")
		return
	}
	m.logger.Debug().Str("producer", p.Name()).Msg("Producer stopped")
}
