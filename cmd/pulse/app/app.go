// Package app provides the application context and dependency management
// for the pulse CLI. It follows idiomatic Go patterns for CLI applications
// by centralizing configuration, dependency injection, and lifecycle management.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse"
	"github.com/dashwire/pulse/cmd/application"
	"github.com/dashwire/pulse/internal/config"
)

// Ensure App satisfies the interface commands depend on.
var _ application.Application = (*App)(nil)

// App represents the pulse application with all its dependencies.
// It provides a centralized place for configuration, logging, and
// the pulse client, following the dependency injection pattern.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Pulse client (lazy-initialized, singleton)
	mu    sync.RWMutex
	pulse pulse.Client
}

// New creates a new App instance with the given version information.
// The app is initialized with default configuration that can be
// customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	// Load configuration
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = cfg

	// Initialize logger
	logger := NewLogger(cfg)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// ConfigFile returns the project file path, or empty when the working
// directory default applies.
func (a *App) ConfigFile() string {
	return a.config.ConfigFile
}

// Pulse returns the pulse client with optional configuration.
// When called without options, returns the default cached instance
// (lazy-initialized, thread-safe). When called with options, creates a
// new instance with custom configuration (no caching).
func (a *App) Pulse(opts ...pulse.Option) (pulse.Client, error) {
	if len(opts) > 0 {
		baseOpts, err := a.buildPulseOptions()
		if err != nil {
			return nil, err
		}
		return pulse.New(append(baseOpts, opts...)...)
	}

	a.mu.RLock()
	if a.pulse != nil {
		p := a.pulse
		a.mu.RUnlock()
		return p, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.pulse != nil {
		return a.pulse, nil
	}

	baseOpts, err := a.buildPulseOptions()
	if err != nil {
		return nil, err
	}
	p, err := pulse.New(baseOpts...)
	if err != nil {
		return nil, err
	}

	a.pulse = p
	return p, nil
}

// Shutdown performs graceful shutdown of the application.
// It stops any running background tasks and cleans up resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.RLock()
	p := a.pulse
	a.mu.RUnlock()

	if p != nil && p.Running() {
		if err := p.Stop(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop pulse during shutdown")
			return err
		}
	}

	return nil
}

// buildPulseOptions constructs pulse options from the app configuration.
// An explicit --config path must exist; otherwise the working directory's
// project file is used when present, with built-in defaults as fallback.
func (a *App) buildPulseOptions() ([]pulse.Option, error) {
	opts := []pulse.Option{pulse.WithLogger(a.logger)}

	if a.config.ConfigFile != "" {
		opts = append(opts, pulse.WithConfigFile(a.config.ConfigFile))
	} else {
		file, err := config.LoadOrDefault(config.DefaultFileName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pulse.WithConfig(file))
	}

	if a.config.ProjectID != "" {
		opts = append(opts, pulse.WithProjectID(a.config.ProjectID))
	}

	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithPulse sets a custom pulse client (useful for testing).
func WithPulse(p pulse.Client) Option {
	return func(a *App) error {
		a.pulse = p
		return nil
	}
}
