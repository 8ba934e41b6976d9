package handlers

import (
	"net/http"
	"runtime"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/response"
)

// statsCacheKey holds the last good hub snapshot so the endpoint can keep
// answering while the hub is starting or shutting down.
const statsCacheKey = "hub:stats"

// HandleStats handles GET /api/v1/stats.
// @Summary Hub statistics
// @Description Get hub, runtime, and cache statistics
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security ApiKeyAuth
// @Router /api/v1/stats [get].
func (h *Handlers) HandleStats(w http.ResponseWriter, _ *http.Request) {
	if h.hub.Running() {
		stats := h.hub.Stats()
		h.cache.Set(statsCacheKey, stats)
		h.writeStats(w, stats, false)
		return
	}

	// Degrade to the last snapshot rather than failing the dashboard.
	if cached, ok := h.cache.Get(statsCacheKey); ok {
		if stats, ok := cached.(hub.Stats); ok {
			h.writeStats(w, stats, true)
			return
		}
	}
	h.writeStats(w, hub.Stats{}, true)
}

func (h *Handlers) writeStats(w http.ResponseWriter, stats hub.Stats, stale bool) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response.OK(w, map[string]any{
		"hub":   stats,
		"stale": stale,
		"runtime": map[string]any{
			"goroutines":    runtime.NumGoroutine(),
			"memory_mb":     memStats.Alloc / 1024 / 1024,
			"memory_sys_mb": memStats.Sys / 1024 / 1024,
		},
		"cache": h.cache.GetStats(),
	})
}
