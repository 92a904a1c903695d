package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts/1/balance", nil))

	for name, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS expected over TLS")
	}
}

func TestClientIPExtractor(t *testing.T) {
	e, err := NewClientIPExtractor("10.0.0.0/8")
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct peer", "203.0.113.5:4000", "", "", "203.0.113.5"},
		{"untrusted peer ignores XFF", "203.0.113.5:4000", "1.2.3.4", "", "203.0.113.5"},
		{"trusted proxy uses first XFF", "10.1.2.3:80", "198.51.100.7, 10.1.2.3", "", "198.51.100.7"},
		{"trusted proxy falls back to X-Real-IP", "10.1.2.3:80", "garbage", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy without headers", "10.1.2.3:80", "", "", "10.1.2.3"},
		{"unparseable remote addr", "pipe", "", "", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := e.ExtractClientIP(r); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := NewClientIPExtractor("not-a-cidr"); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}
