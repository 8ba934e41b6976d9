// Package handlers provides HTTP request handlers for the Pulse API.
package handlers

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/cache"
	"github.com/dashwire/pulse/internal/server/sse"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	hub      *hub.Hub
	cache    *cache.Cache
	sse      *sse.Handler
	upgrader websocket.Upgrader
	logger   *zerolog.Logger
	dev      bool
}

// New creates a new Handlers instance. dev enables the synthetic event
// endpoint used during dashboard development.
func New(
	h *hub.Hub,
	c *cache.Cache,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	dev bool,
) *Handlers {
	return &Handlers{
		hub:      h,
		cache:    c,
		sse:      sse.NewHandler(h, logger),
		upgrader: upgrader,
		logger:   logger,
		dev:      dev,
	}
}
