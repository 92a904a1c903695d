package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware stores logger in each request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds the request id to the context logger.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).With(FieldRequestID, extractRequestID(r))
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the recurring log events of the service.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a finished request at a level derived from its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogTransactionRecorded(ctx context.Context, accountID, transactionID int64, spendingType, amount, balance string) {
	fields := NewFields().
		WithTransaction(accountID, transactionID, spendingType, amount).
		WithOperation(OpApply).
		WithComponent(ComponentLedger)
	fields[FieldBalance] = balance

	sl.logger.Logger.InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)
}

func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
