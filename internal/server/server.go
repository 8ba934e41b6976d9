// Package server provides the HTTP server for the Pulse API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/cache"
	"github.com/dashwire/pulse/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
//
// The hub is injected, but once Start is called the server owns its
// lifecycle: the broadcast loop runs until Shutdown cancels it.
type Server struct {
	hub       *hub.Hub
	cache     *cache.Cache
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// New creates a new server instance with the given configuration.
func New(h *hub.Hub, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if h == nil {
		return nil, errors.NewConfigError("server", "hub is required", nil)
	}

	// Set defaults
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger.Debug().
		Str("path_prefix", cfg.PathPrefix).
		Bool("dev_endpoints", cfg.DevEndpoints).
		Msg("Creating server instance")

	return &Server{
		hub:   h,
		cache: cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}, nil
}

// Start starts the hub's broadcast loop. It returns immediately.
func (s *Server) Start() {
	s.logger.Debug().Msg("Starting event hub")
	go s.hub.Run(s.ctx)
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Addr returns the host:port the server is configured to listen on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Shutdown stops the hub and waits for the broadcast loop to drain, up to
// the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for s.hub.Running() {
		select {
		case <-ctx.Done():
			s.logger.Warn().Msg("Background services shutdown timed out")
			return ctx.Err()
		case <-ticker.C:
		}
	}

	s.logger.Info().Msg("Background services shut down successfully")
	return nil
}

// Hub returns the event hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
