// Package logging provides structured JSON logging for the extension host.
// It wraps Go's built-in log/slog with host-specific helpers: a per-request
// trace ID injected via middleware, and a plugin identity annotation used
// when isolating hook failures.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"os"
)

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	pluginKey  contextKey = "plugin"
)

// Logger is the package-level structured logger. Callers should prefer
// FromContext(ctx) to automatically attach trace and plugin annotations.
var Logger *slog.Logger

func init() {
	Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// Setup (re-)initialises the package logger. level is one of debug/info/warn/error
// (default info). format is "json" (default) or "text".
func Setup(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// NewTraceID generates a random 16-byte hex trace ID.
func NewTraceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithPlugin annotates the context with the plugin currently being invoked.
func WithPlugin(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, pluginKey, name)
}

// FromContext returns a *slog.Logger pre-annotated with the trace_id and
// plugin stored in ctx, if any.
func FromContext(ctx context.Context) *slog.Logger {
	log := Logger
	if id, _ := ctx.Value(traceIDKey).(string); id != "" {
		log = log.With("trace_id", id)
	}
	if name, _ := ctx.Value(pluginKey).(string); name != "" {
		log = log.With("plugin", name)
	}
	return log
}

// Middleware injects a trace ID into every request context and echoes it in
// the X-Request-ID response header. Uses the incoming X-Request-ID header if
// present, otherwise generates a new one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Request-ID")
		if traceID == "" {
			traceID = NewTraceID()
		}
		ctx := WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Request-ID", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
