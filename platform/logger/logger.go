// Package logger wraps slog with the structured events the services emit.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the X-Request-ID of the current request.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the authenticated user ID.
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New logs to stdout: text at debug level in development, JSON otherwise.
func New(env string) *Logger {
	return NewWriter(env, os.Stdout)
}

// NewWriter creates a logger that writes to w. Tests pass io.Discard.
func NewWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// WithContext adds the request and user IDs found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	for _, key := range []contextKey{RequestIDKey, UserIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", errString(err)),
		slog.String("client_ip", clientIP),
	)
}

// ShareAccess logs the outcome of a shared map access attempt.
// Denials are logged at warn so repeated password guessing is visible.
func (l *Logger) ShareAccess(mapID, outcome, reason, clientIP string) {
	attrs := []any{
		slog.String("map_id", mapID),
		slog.String("outcome", outcome),
		slog.String("client_ip", clientIP),
	}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}

	if outcome == "granted" {
		l.Info("share_access", attrs...)
		return
	}
	l.Warn("share_access", attrs...)
}

// ProviderFailure logs a failed geocoder call. status is 0 when no response arrived.
func (l *Logger) ProviderFailure(provider string, status int, err error) {
	l.Error("provider_failure",
		slog.String("provider", provider),
		slog.Int("status", status),
		slog.String("error", errString(err)),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
