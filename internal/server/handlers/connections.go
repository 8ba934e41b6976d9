package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/response"
	"github.com/dashwire/pulse/pkg/constants"
)

// HandleListConnections handles GET /api/v1/connections.
// @Summary List active connections
// @Description List all active WebSocket and SSE connections with their subscriptions
// @Tags connections
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=object}
// @Security ApiKeyAuth
// @Router /api/v1/connections [get].
func (h *Handlers) HandleListConnections(w http.ResponseWriter, _ *http.Request) {
	conns := h.hub.Connections()
	response.OK(w, map[string]any{
		"connections": conns,
		"total":       len(conns),
	})
}

// HandleGetConnection handles GET /api/v1/connections/{id}.
// @Summary Get connection details
// @Description Get one active connection by id
// @Tags connections
// @Accept json
// @Produce json
// @Param id path string true "Connection ID"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/connections/{id} [get].
func (h *Handlers) HandleGetConnection(w http.ResponseWriter, _ *http.Request, id string) {
	for _, c := range h.hub.Connections() {
		if c.ID == id {
			response.OK(w, c)
			return
		}
	}
	response.NotFound(w, "Connection not found", "No active connection with id "+id)
}

// subscriptionRequest is the body of an out-of-band subscription update.
type subscriptionRequest struct {
	EventTypes []string `json:"event_types"`
	ProjectID  string   `json:"project_id"`
}

// HandleUpdateSubscription handles PUT /api/v1/connections/{id}/subscription.
// @Summary Update a connection's subscription
// @Description Replace a connection's event type and project filters out-of-band
// @Tags connections
// @Accept json
// @Produce json
// @Param id path string true "Connection ID"
// @Param subscription body subscriptionRequest true "New subscription"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/connections/{id}/subscription [put].
func (h *Handlers) HandleUpdateSubscription(w http.ResponseWriter, r *http.Request, id string) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	types := make([]hub.EventType, 0, len(req.EventTypes))
	for _, t := range req.EventTypes {
		types = append(types, hub.EventType(t))
	}

	if err := h.hub.UpdateSubscription(id, types, req.ProjectID); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	h.logger.Info().
		Str("connection_id", id).
		Int("event_types", len(types)).
		Str("project_id", req.ProjectID).
		Msg("Subscription updated via API")

	response.OK(w, map[string]any{
		"status":        "updated",
		"connection_id": id,
		"event_types":   req.EventTypes,
		"project_id":    req.ProjectID,
	})
}
