package trace

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "fintrack/internal/log"
)

type ContextKey string

const RequestIDKey ContextKey = "request_id"

// HeaderRequestID is read from incoming requests and echoed on responses.
const HeaderRequestID = "X-Request-ID"

type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
}

// Middleware assigns request ids and writes one access log line per request.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger
	metrics   Metrics
}

func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		logger:    applog.NewStructuredLogger(logger),
	}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" || len(requestID) > 64 {
			requestID = GenerateRequestID()
		}
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)
		w.Header().Set(HeaderRequestID, requestID)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 500 {
			atomic.AddInt64(&m.metrics.ServerErrors, 1)
		}

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}
		m.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: atomic.LoadInt64(&m.metrics.TotalRequests),
		ServerErrors:  atomic.LoadInt64(&m.metrics.ServerErrors),
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

// GetRequestID returns the id stored by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
