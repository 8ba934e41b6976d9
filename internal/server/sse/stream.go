// Package sse streams hub events over Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/filter"
	"github.com/dashwire/pulse/internal/server/response"
)

// Handler serves the SSE stream endpoint. Each request registers one hub
// connection and holds it until the client goes away or the hub closes it.
type Handler struct {
	hub    *hub.Hub
	logger *zerolog.Logger
}

// NewHandler creates an SSE handler backed by the given hub.
func NewHandler(h *hub.Hub, logger *zerolog.Logger) *Handler {
	return &Handler{hub: h, logger: logger}
}

// ServeHTTP turns the request into a long-lived event stream.
//
// Filters and the replay cursor come from query parameters; a Last-Event-ID
// header set by a reconnecting EventSource takes precedence over the
// last_event_id query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stream, err := filter.ParseStream(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	cursor := stream.LastEventID
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			response.BadRequest(w, "Invalid Last-Event-ID header", "must be a non-negative integer")
			return
		}
		cursor = id
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sub := h.hub.NewConn("sse", stream.EventTypes, stream.ProjectID)
	if err := h.hub.Register(sub, cursor); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	defer h.hub.Unregister(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.logger.Info().
		Str("connection_id", sub.ID()).
		Int64("last_event_id", cursor).
		Msg("SSE client connected")

	if err := h.writeGreeting(w, flusher, sub.ID()); err != nil {
		return
	}

	for {
		select {
		case f, ok := <-sub.Frames():
			if !ok {
				// Hub closed the connection (shutdown or eviction)
				return
			}
			if err := h.writeFrame(w, flusher, f); err != nil {
				h.logger.Debug().
					Err(err).
					Str("connection_id", sub.ID()).
					Msg("SSE write failed")
				return
			}
			sub.Touch()

		case <-r.Context().Done():
			h.logger.Info().
				Str("connection_id", sub.ID()).
				Msg("SSE client disconnected")
			return
		}
	}
}

// writeGreeting sends the connection_established event. It carries no id
// line so it never disturbs the client's replay cursor.
func (h *Handler) writeGreeting(w http.ResponseWriter, flusher http.Flusher, connID string) error {
	data, err := json.Marshal(map[string]any{
		"connection_id": connID,
		"timestamp":     time.Now(),
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: connection_established\ndata: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// writeFrame writes one hub frame in SSE framing. Events carry an id line;
// heartbeats do not, so auto-reconnects resume from the last real event.
func (h *Handler) writeFrame(w http.ResponseWriter, flusher http.Flusher, f hub.Frame) error {
	switch f.Kind {
	case hub.FrameEvent:
		data, err := json.Marshal(f.Event.Payload)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to marshal SSE event data")
			return nil
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", f.Event.ID, f.Event.Type, data); err != nil {
			return err
		}

	case hub.FrameHeartbeat:
		data, err := json.Marshal(map[string]any{"timestamp": f.At})
		if err != nil {
			return nil
		}
		if _, err := fmt.Fprintf(w, "event: heartbeat\ndata: %s\n\n", data); err != nil {
			return err
		}
	}
	flusher.Flush()
	return nil
}
