package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dashwire/pulse/internal/hub"
	"github.com/dashwire/pulse/internal/server/response"
	"github.com/dashwire/pulse/pkg/constants"
	"github.com/dashwire/pulse/pkg/errors"
)

// publishRequest is the body of a synthetic event publish.
type publishRequest struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Source    string `json:"source"`
	ProjectID string `json:"project_id"`
}

// HandlePublishEvent handles POST /api/v1/events.
//
// The endpoint exists for exercising dashboards without real producers and
// is hidden unless development endpoints are enabled.
//
// @Summary Publish a synthetic event
// @Description Publish a test event into the hub (development only)
// @Tags admin
// @Accept json
// @Produce json
// @Param event body publishRequest true "Event to publish"
// @Success 202 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 503 {object} response.Response{error=response.Error}
// @Security ApiKeyAuth
// @Router /api/v1/events [post].
func (h *Handlers) HandlePublishEvent(w http.ResponseWriter, r *http.Request) {
	if !h.dev {
		response.NotFound(w, "Not found", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxEventPayloadSize)

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err.Error())
		return
	}

	typ := hub.EventType(req.Type)
	if !typ.Valid() {
		response.BadRequest(w, "Unknown event type", req.Type)
		return
	}

	source := req.Source
	if source == "" {
		source = "api"
	}

	id, ok := h.hub.Publish(hub.Event{
		Type:      typ,
		Payload:   req.Payload,
		Source:    source,
		ProjectID: req.ProjectID,
	})
	if !ok {
		response.ErrorFromType(w, errors.ErrQueueFull)
		return
	}

	h.logger.Debug().
		Int64("event_id", id).
		Str("event_type", req.Type).
		Msg("Synthetic event published")

	response.Accepted(w, map[string]any{"event_id": id})
}
