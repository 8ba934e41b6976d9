package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dashwire/pulse/internal/server/handlers"
	"github.com/dashwire/pulse/internal/server/middleware"
	"github.com/dashwire/pulse/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(s.hub, s.cache, s.upgrader, s.logger, s.config.DevEndpoints)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth required)
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc(prefix+"/health", h.HandleHealth)
	mux.HandleFunc(prefix+"/ready", h.HandleReady)

	// Connection management endpoints
	mux.HandleFunc(prefix+"/connections", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.HandleListConnections(w, r)
			return
		}
		response.MethodNotAllowed(w, r.Method)
	})

	mux.HandleFunc(prefix+"/connections/", func(w http.ResponseWriter, r *http.Request) {
		parts := splitPath(r.URL.Path[len(prefix+"/connections/"):])

		if len(parts) == 0 {
			response.BadRequest(w, "Connection ID required", "")
			return
		}

		connID := parts[0]

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			h.HandleGetConnection(w, r, connID)
		case len(parts) == 2 && parts[1] == "subscription" && r.Method == http.MethodPut:
			h.HandleUpdateSubscription(w, r, connID)
		default:
			response.NotFound(w, "Not found", "")
		}
	})

	// Statistics endpoint
	mux.HandleFunc(prefix+"/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.HandleStats(w, r)
			return
		}
		response.MethodNotAllowed(w, r.Method)
	})

	// Synthetic event endpoint (development only; hidden otherwise)
	mux.HandleFunc(prefix+"/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.HandlePublishEvent(w, r)
			return
		}
		response.MethodNotAllowed(w, r.Method)
	})

	// Real-time endpoints
	mux.HandleFunc(prefix+"/events/ws", h.HandleWebSocket)
	mux.HandleFunc(prefix+"/events/stream", h.HandleSSE)

	// Metrics endpoint (optional)
	if s.config.MetricsEnabled {
		mux.HandleFunc("/metrics", s.handleMetrics)
	}
}

// handleMetrics writes hub counters in Prometheus exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	stats := s.hub.Stats()

	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "# TYPE pulse_api_info gauge\n")
	_, _ = fmt.Fprintf(w, "pulse_api_info{version=\"v1\"} 1\n")
	_, _ = fmt.Fprintf(w, "# TYPE pulse_active_connections gauge\n")
	_, _ = fmt.Fprintf(w, "pulse_active_connections %d\n", stats.ActiveConnections)
	_, _ = fmt.Fprintf(w, "# TYPE pulse_events_published_total counter\n")
	_, _ = fmt.Fprintf(w, "pulse_events_published_total %d\n", stats.TotalPublished)
	_, _ = fmt.Fprintf(w, "# TYPE pulse_events_dropped_queue_total counter\n")
	_, _ = fmt.Fprintf(w, "pulse_events_dropped_queue_total %d\n", stats.DroppedQueueFull)
	_, _ = fmt.Fprintf(w, "# TYPE pulse_events_dropped_slow_total counter\n")
	_, _ = fmt.Fprintf(w, "pulse_events_dropped_slow_total %d\n", stats.DroppedSlowConsumer)
	_, _ = fmt.Fprintf(w, "# TYPE pulse_connections_evicted_total counter\n")
	_, _ = fmt.Fprintf(w, "pulse_connections_evicted_total %d\n", stats.EvictedConnections)
	_, _ = fmt.Fprintf(w, "# TYPE pulse_queue_depth gauge\n")
	_, _ = fmt.Fprintf(w, "pulse_queue_depth %d\n", stats.QueueDepth)
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	// Rate limiting (if enabled)
	if cfg.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, s.logger)
		handler = middleware.RateLimit(rateLimiter)(handler)
	}

	// Authentication (if enabled)
	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.HeaderName = cfg.AuthHeader
		authConfig.PublicPaths = []string{
			"/health",
			cfg.PathPrefix + "/health",
			cfg.PathPrefix + "/ready",
		}
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	// CORS (if enabled)
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// Logging and recovery (always enabled)
	handler = middleware.Logger(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

// splitPath splits a URL path into parts, removing empty strings.
func splitPath(path string) []string {
	parts := []string{}
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
