package handlers

import (
	"net/http"

	"github.com/dashwire/pulse/internal/server/filter"
	"github.com/dashwire/pulse/internal/server/response"
	ws "github.com/dashwire/pulse/internal/server/websocket"
)

// HandleWebSocket handles WebSocket connections at /api/v1/events/ws.
//
// Filters and a replay cursor may be supplied as query parameters, using
// the same names as the SSE endpoint; clients can also adjust them later
// with subscribe and reconnect messages.
//
// @Summary WebSocket event stream
// @Description WebSocket connection for real-time dashboard events
// @Tags events
// @Success 101 "Switching Protocols"
// @Router /api/v1/events/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	stream, err := filter.ParseStream(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sub := h.hub.NewConn("websocket", stream.EventTypes, stream.ProjectID)
	if err := h.hub.Register(sub, stream.LastEventID); err != nil {
		h.logger.Error().Err(err).Msg("WebSocket registration failed")
		_ = conn.Close()
		return
	}

	h.logger.Info().
		Str("connection_id", sub.ID()).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket client connected")

	client := ws.NewClient(h.hub, sub, conn, h.logger)
	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /api/v1/events/stream.
// @Summary SSE event stream
// @Description Server-Sent Events stream of dashboard events
// @Tags events
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /api/v1/events/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sse.ServeHTTP(w, r)
}
