// Package websocket adapts hub connections to the WebSocket wire protocol.
package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client bridges one WebSocket connection and its hub registration.
//
// The write pump is the only goroutine writing to the socket. It merges
// three sources: frames delivered by the hub, protocol replies queued by
// the read pump, and the ping ticker. The read pump parses inbound
// messages and records them as activity.
type Client struct {
	hub    *hub.Hub
	sub    *hub.Conn
	ws     *websocket.Conn
	out    chan any
	logger *zerolog.Logger
}

// NewClient wraps an upgraded WebSocket connection around a registered hub
// connection. Start the pumps with go client.WritePump() and
// go client.ReadPump().
func NewClient(h *hub.Hub, sub *hub.Conn, ws *websocket.Conn, logger *zerolog.Logger) *Client {
	return &Client{
		hub:    h,
		sub:    sub,
		ws:     ws,
		out:    make(chan any, 16),
		logger: logger,
	}
}

// ReadPump pumps messages from the WebSocket connection into protocol
// handling. It exits on read error and unregisters the connection, which
// makes the hub close the delivery channel and so stops the write pump.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c.sub)
		_ = c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.sub.Touch()
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error().Err(err).Str("connection_id", c.sub.ID()).Msg("WebSocket read error")
			}
			break
		}
		c.sub.Touch()
		c.handleMessage(data)
	}
}

// handleMessage dispatches one inbound protocol message. Protocol errors
// are answered with an error message; the connection stays open.
func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(errorMessage{Type: msgError, Message: "malformed message: " + err.Error()})
		return
	}

	switch msg.Type {
	case msgSubscribe:
		types := make([]hub.EventType, 0, len(msg.EventTypes))
		for _, t := range msg.EventTypes {
			types = append(types, hub.EventType(t))
		}
		if err := c.hub.UpdateSubscription(c.sub.ID(), types, msg.ProjectID); err != nil {
			c.reply(errorMessage{Type: msgError, Message: err.Error()})
			return
		}
		c.reply(subscriptionConfirmed{
			Type:       msgSubscriptionConfirmed,
			EventTypes: msg.EventTypes,
			ProjectID:  msg.ProjectID,
		})

	case msgPing:
		c.reply(heartbeatMessage{Type: msgHeartbeat, Timestamp: time.Now()})

	case msgReconnect:
		if msg.LastEventID == nil || *msg.LastEventID < 0 {
			c.reply(errorMessage{Type: msgError, Message: "reconnect requires a non-negative last_event_id"})
			return
		}
		if err := c.hub.Resume(c.sub, *msg.LastEventID); err != nil {
			c.reply(errorMessage{Type: msgError, Message: err.Error()})
			return
		}
		c.reply(reconnectConfirmed{Type: msgReconnectConfirmed, LastEventID: *msg.LastEventID})

	case msgGetStats:
		c.reply(statsResponse{Type: msgStatsResponse, Stats: c.hub.Stats()})

	default:
		c.reply(errorMessage{Type: msgError, Message: "unknown message type: " + msg.Type})
	}
}

// reply queues a protocol response for the write pump.
func (c *Client) reply(msg any) {
	select {
	case c.out <- msg:
	default:
		c.logger.Warn().
			Str("connection_id", c.sub.ID()).
			Msg("Response channel full, reply dropped")
	}
}

// WritePump pumps hub frames and protocol replies to the WebSocket
// connection. The greeting goes out first, before any frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.writeJSON(connectionEstablished{
		Type:         msgConnectionEstablished,
		ConnectionID: c.sub.ID(),
		Timestamp:    time.Now(),
	}); err != nil {
		return
	}

	for {
		select {
		case f, ok := <-c.sub.Frames():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the delivery channel
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.writeFrame(f); err != nil {
				return
			}

		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.writeJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeFrame translates a hub frame to its wire message.
func (c *Client) writeFrame(f hub.Frame) error {
	switch f.Kind {
	case hub.FrameEvent:
		return c.writeJSON(eventMessage{
			Type:      msgEvent,
			EventType: f.Event.Type,
			Data:      f.Event.Payload,
			EventID:   f.Event.ID,
			ProjectID: f.Event.ProjectID,
			Timestamp: f.Event.CreatedAt,
		})
	case hub.FrameHeartbeat:
		return c.writeJSON(heartbeatMessage{Type: msgHeartbeat, Timestamp: f.At})
	}
	return nil
}

func (c *Client) writeJSON(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal WebSocket message")
		return nil
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
