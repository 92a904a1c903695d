package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "fintrack/internal/log"
)

func newTestLogger(buf *bytes.Buffer) *applog.Logger {
	return applog.New(applog.Config{
		Level:     slog.LevelDebug,
		Component: applog.ComponentHTTP,
		Output:    buf,
	})
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), func(*http.Request) string { return "10.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts/1/balance", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Fatalf("response header %q, context %q", got, seen)
	}
	if !strings.Contains(buf.String(), "HTTP request completed") || !strings.Contains(buf.String(), "10.0.0.1") {
		t.Fatalf("missing access log: %s", buf.String())
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), nil)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", seen)
	}
}

func TestMiddleware_CountsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(newTestLogger(&buf), nil)

	statuses := []int{http.StatusOK, http.StatusInternalServerError, http.StatusNotFound, http.StatusBadGateway}
	for _, code := range statuses {
		code := code
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 || got.ServerErrors != 2 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
