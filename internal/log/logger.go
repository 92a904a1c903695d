package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that stamps every line with its component.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}

	return &Logger{
		Logger:    slog.New(handler),
		component: config.Component,
	}
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		component: component,
	}
}

func (l *Logger) withComponent(args []any) []any {
	return append([]any{FieldComponent, l.component}, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, l.withComponent(args)...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.Logger.InfoContext(ctx, msg, l.withComponent(args)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, l.withComponent(args)...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.Logger.WarnContext(ctx, msg, l.withComponent(args)...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.Logger.Error(msg, l.withComponent(args)...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.Logger.ErrorContext(ctx, msg, l.withComponent(args)...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, l.withComponent(args)...)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.Logger.DebugContext(ctx, msg, l.withComponent(args)...)
}

// SetDefault installs logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

func (l *Logger) Component() string {
	return l.component
}
