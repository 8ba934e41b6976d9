package websocket

import (
	"time"

	"github.com/dashwire/pulse/internal/hub"
)

// Client to server message types.
const (
	msgSubscribe = "subscribe"
	msgPing      = "ping"
	msgReconnect = "reconnect"
	msgGetStats  = "get_stats"
)

// Server to client message types.
const (
	msgConnectionEstablished = "connection_established"
	msgSubscriptionConfirmed = "subscription_confirmed"
	msgEvent                 = "event"
	msgHeartbeat             = "heartbeat"
	msgStatsResponse         = "stats_response"
	msgReconnectConfirmed    = "reconnect_confirmed"
	msgError                 = "error"
)

// clientMessage is the single inbound shape. Type selects the operation
// and the remaining fields apply to the operations that use them.
type clientMessage struct {
	Type        string   `json:"type"`
	EventTypes  []string `json:"event_types,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	LastEventID *int64   `json:"last_event_id,omitempty"`
}

type connectionEstablished struct {
	Type         string    `json:"type"`
	ConnectionID string    `json:"connection_id"`
	Timestamp    time.Time `json:"timestamp"`
}

type subscriptionConfirmed struct {
	Type       string   `json:"type"`
	EventTypes []string `json:"event_types"`
	ProjectID  string   `json:"project_id,omitempty"`
}

type eventMessage struct {
	Type      string        `json:"type"`
	EventType hub.EventType `json:"event_type"`
	Data      any           `json:"data"`
	EventID   int64         `json:"event_id"`
	ProjectID string        `json:"project_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type heartbeatMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type statsResponse struct {
	Type  string    `json:"type"`
	Stats hub.Stats `json:"stats"`
}

type reconnectConfirmed struct {
	Type        string `json:"type"`
	LastEventID int64  `json:"last_event_id"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
