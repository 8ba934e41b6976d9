package handlers

import (
	"net/http"

	"github.com/dashwire/pulse/internal/server/response"
)

// HandleHealth handles GET /api/v1/health.
// @Summary Health check
// @Description Health check endpoint (liveness probe)
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Router /api/v1/health [get].
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":  "healthy",
		"service": "pulse-api",
		"version": "v1",
	})
}

// HandleReady handles GET /api/v1/ready.
// @Summary Readiness check
// @Description Readiness check including hub and cache status
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/ready [get].
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if !h.hub.Running() {
		response.ServiceUnavailable(w, "Hub not running")
		return
	}

	stats := h.hub.Stats()
	response.OK(w, map[string]any{
		"status":             "ready",
		"active_connections": stats.ActiveConnections,
		"cache": map[string]any{
			"items": h.cache.ItemCount(),
		},
	})
}
