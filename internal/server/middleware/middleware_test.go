package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestChain tests middleware composition.
func TestChain(t *testing.T) {
	var callOrder []string

	middlewares := make([]func(http.Handler) http.Handler, 3)
	for i := 0; i < 3; i++ {
		name := "m" + string(rune('1'+i))
		middlewares[i] = func(n string) func(http.Handler) http.Handler {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					callOrder = append(callOrder, n)
					next.ServeHTTP(w, r)
				})
			}
		}(name)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callOrder = append(callOrder, "handler")
		w.WriteHeader(http.StatusOK)
	})

	chained := Chain(middlewares...)(handler)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	chained.ServeHTTP(w, req)

	expected := []string{"m1", "m2", "m3", "handler"}
	if len(callOrder) != len(expected) {
		t.Fatalf("expected %d calls, got %d", len(expected), len(callOrder))
	}
	for i, exp := range expected {
		if callOrder[i] != exp {
			t.Errorf("call %d: expected %s, got %s", i, exp, callOrder[i])
		}
	}
}

// TestLogger tests request logging middleware.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	wrapped := Logger(&logger)(handler)

	req := httptest.NewRequest("GET", "/api/v1/connections", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	output := buf.String()
	if !strings.Contains(output, "/api/v1/connections") {
		t.Error("log output missing request path")
	}
	if !strings.Contains(output, `"status":404`) {
		t.Error("log output missing captured status code")
	}
	if !strings.Contains(output, "HTTP request") {
		t.Error("log output missing completion message")
	}
}

// TestRecovery tests panic recovery middleware.
func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	wrapped := Recovery(&logger)(handler)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Error("expected error envelope in response body")
	}
	if !strings.Contains(buf.String(), "Panic recovered") {
		t.Error("expected panic to be logged")
	}
}

// TestRecovery_NoPanic tests that normal requests pass through untouched.
func TestRecovery_NoPanic(t *testing.T) {
	logger := zerolog.Nop()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	wrapped := Recovery(&logger)(handler)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected body ok, got %q", w.Body.String())
	}
}

// TestResponseWriter_Flush tests that the status-capturing wrapper still
// supports streaming responses.
func TestResponseWriter_Flush(t *testing.T) {
	logger := zerolog.Nop()

	var flushable bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
	})

	wrapped := Logger(&logger)(handler)

	req := httptest.NewRequest("GET", "/api/v1/events/stream", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if !flushable {
		t.Error("wrapped response writer does not implement http.Flusher")
	}
}
