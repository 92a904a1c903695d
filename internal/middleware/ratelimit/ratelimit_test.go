package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(limit int) (*Limiter, *time.Time) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerWindow: limit, Window: time.Minute, IdleTimeout: 10 * time.Minute})
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("a") {
		t.Fatal("fourth request in window should be rejected")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients have their own budget")
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the budget")
	}
}

func TestLimiter_CleanExpired(t *testing.T) {
	rl, now := newTestLimiter(5)
	rl.Allow("a")
	*now = now.Add(5 * time.Minute)
	rl.Allow("b")
	*now = now.Add(6 * time.Minute)

	if removed := rl.CleanExpired(); removed != 1 {
		t.Fatalf("removed %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("active clients = %d, want 1", rl.ActiveClients())
	}
}

func TestLimiter_MiddlewareOnlyLimitsWrites(t *testing.T) {
	rl, _ := newTestLimiter(1)
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPost, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/transactions", nil))
		if rec.Code != tt.want {
			t.Fatalf("%s: status %d, want %d", tt.method, rec.Code, tt.want)
		}
	}
}
