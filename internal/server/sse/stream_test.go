package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dashwire/pulse/internal/hub"
)

// sseEvent is one parsed text/event-stream block.
type sseEvent struct {
	id    string
	event string
	data  string
}

// newTestHandler starts a hub and an HTTP server streaming it over SSE.
func newTestHandler(t *testing.T, opts hub.Options) (*httptest.Server, *hub.Hub) {
	t.Helper()

	logger := zerolog.Nop()
	h := hub.New(opts, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	time.Sleep(10 * time.Millisecond)

	srv := httptest.NewServer(NewHandler(h, &logger))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, h
}

// connect opens a streaming GET bounded by a deadline so a stalled stream
// fails the test instead of hanging it.
func connect(t *testing.T, url string, header http.Header) *http.Response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// readEvent parses the next event block from the stream.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()

	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Failed to read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return ev
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

// TestHandler_StreamHeaders tests the SSE response headers and the greeting.
func TestHandler_StreamHeaders(t *testing.T) {
	srv, _ := newTestHandler(t, hub.Options{})
	resp := connect(t, srv.URL, nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected no-cache, got %q", cc)
	}

	reader := bufio.NewReader(resp.Body)
	ev := readEvent(t, reader)
	if ev.event != "connection_established" {
		t.Fatalf("expected connection_established, got %q", ev.event)
	}
	if ev.id != "" {
		t.Errorf("greeting must not carry an id line, got %q", ev.id)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(ev.data), &data); err != nil {
		t.Fatalf("Failed to decode greeting data %q: %v", ev.data, err)
	}
	if id, _ := data["connection_id"].(string); id == "" {
		t.Error("greeting missing connection_id")
	}
}

// TestHandler_EventFraming tests the id/event/data framing of a delivered
// event.
func TestHandler_EventFraming(t *testing.T) {
	srv, h := newTestHandler(t, hub.Options{})
	resp := connect(t, srv.URL, nil)
	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // greeting
	time.Sleep(10 * time.Millisecond)

	h.Publish(hub.Event{
		Type:    hub.Commit,
		Payload: map[string]any{"hash": "abc123"},
	})

	ev := readEvent(t, reader)
	if ev.id != "1" {
		t.Errorf("expected id 1, got %q", ev.id)
	}
	if ev.event != string(hub.Commit) {
		t.Errorf("expected event %s, got %q", hub.Commit, ev.event)
	}
	if !strings.Contains(ev.data, "abc123") {
		t.Errorf("expected data to carry payload, got %q", ev.data)
	}
}

// TestHandler_Filters tests event_types and project_id query filtering.
func TestHandler_Filters(t *testing.T) {
	srv, h := newTestHandler(t, hub.Options{})
	resp := connect(t, srv.URL+"?event_types=commit", nil)
	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // greeting
	time.Sleep(10 * time.Millisecond)

	h.Publish(hub.Event{Type: hub.FileChange})
	h.Publish(hub.Event{Type: hub.Commit})

	ev := readEvent(t, reader)
	if ev.event != string(hub.Commit) {
		t.Errorf("expected filtered stream to deliver commit, got %q", ev.event)
	}
	if ev.id != "2" {
		t.Errorf("expected id 2, got %q", ev.id)
	}
}

// TestHandler_Replay tests the last_event_id query parameter replay.
func TestHandler_Replay(t *testing.T) {
	srv, h := newTestHandler(t, hub.Options{})
	for i := 0; i < 5; i++ {
		h.Publish(hub.Event{Type: hub.TaskUpdate})
	}
	time.Sleep(50 * time.Millisecond)

	resp := connect(t, srv.URL+"?last_event_id=2", nil)
	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // greeting

	for want := 3; want <= 5; want++ {
		ev := readEvent(t, reader)
		if ev.id != strconv.Itoa(want) {
			t.Errorf("expected replayed id %d, got %q", want, ev.id)
		}
	}
}

// TestHandler_LastEventIDHeader tests that the Last-Event-ID header set by a
// reconnecting EventSource overrides the query parameter.
func TestHandler_LastEventIDHeader(t *testing.T) {
	srv, h := newTestHandler(t, hub.Options{})
	for i := 0; i < 3; i++ {
		h.Publish(hub.Event{Type: hub.ProgressUpdate})
	}
	time.Sleep(50 * time.Millisecond)

	header := http.Header{}
	header.Set("Last-Event-ID", "2")
	resp := connect(t, srv.URL+"?last_event_id=0", header)
	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // greeting

	ev := readEvent(t, reader)
	if ev.id != "3" {
		t.Errorf("expected header cursor to win, got id %q", ev.id)
	}
}

// TestHandler_InvalidParams tests rejection of bad filters and cursors.
func TestHandler_InvalidParams(t *testing.T) {
	srv, _ := newTestHandler(t, hub.Options{})

	tests := []struct {
		name   string
		url    string
		header http.Header
	}{
		{
			name: "unknown event type",
			url:  srv.URL + "?event_types=bogus",
		},
		{
			name: "malformed cursor",
			url:  srv.URL + "?last_event_id=abc",
		},
		{
			name:   "malformed header cursor",
			url:    srv.URL,
			header: http.Header{"Last-Event-Id": []string{"abc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := connect(t, tt.url, tt.header)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", resp.StatusCode)
			}
			var body struct {
				Error *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode error body: %v", err)
			}
			if body.Error == nil || body.Error.Code != "BAD_REQUEST" {
				t.Errorf("expected BAD_REQUEST error, got %+v", body.Error)
			}
		})
	}
}

// TestHandler_Heartbeat tests that supervisor heartbeats reach the stream
// without an id line.
func TestHandler_Heartbeat(t *testing.T) {
	srv, _ := newTestHandler(t, hub.Options{
		HeartbeatInterval: 20 * time.Millisecond,
		IdleTimeout:       time.Minute,
	})
	resp := connect(t, srv.URL, nil)
	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // greeting

	ev := readEvent(t, reader)
	if ev.event != "heartbeat" {
		t.Fatalf("expected heartbeat, got %q", ev.event)
	}
	if ev.id != "" {
		t.Errorf("heartbeat must not carry an id line, got %q", ev.id)
	}
	if !strings.Contains(ev.data, "timestamp") {
		t.Errorf("expected heartbeat data to carry a timestamp, got %q", ev.data)
	}
}

// TestHandler_DisconnectUnregisters tests that a client going away removes
// the connection from the hub.
func TestHandler_DisconnectUnregisters(t *testing.T) {
	srv, h := newTestHandler(t, hub.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader) // greeting
	time.Sleep(10 * time.Millisecond)

	if n := h.Stats().ActiveConnections; n != 1 {
		t.Fatalf("expected 1 active connection, got %d", n)
	}

	cancel()
	time.Sleep(50 * time.Millisecond)

	if n := h.Stats().ActiveConnections; n != 0 {
		t.Errorf("expected 0 active connections after disconnect, got %d", n)
	}
}
