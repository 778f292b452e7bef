// Package logging provides structured, context-aware logging for the service.
package logging

import (
	"context"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// RequestIDKey carries the per-request correlation id.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the authenticated user id.
	UserIDKey contextKey = "user_id"
)

// Logger wraps a logrus entry with service metadata attached.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the named service with the given level
// ("debug", "info", "warn", "error") and format ("json" or "text").
func New(service, level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	if format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &Logger{entry: base.WithField("service", service)}
}

// NewDefault creates an info-level text logger for the named service.
func NewDefault(service string) *Logger {
	return New(service, "info", "text")
}

// NewWithWriter creates a JSON logger writing to w. Intended for tests that
// assert on emitted lines.
func NewWithWriter(service string, w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: base.WithField("service", service)}
}

// NewNop creates a logger that discards all output. Intended for tests.
func NewNop() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(base)}
}

// WithField returns a logger with an additional field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with additional fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// WithContext returns a logger carrying the request id and user id from ctx,
// when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	entry := l.entry
	if id := GetRequestID(ctx); id != "" {
		entry = entry.WithField(string(RequestIDKey), id)
	}
	if id := GetUserID(ctx); id != "" {
		entry = entry.WithField(string(UserIDKey), id)
	}
	return &Logger{entry: entry}
}

func (l *Logger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *Logger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *Logger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *Logger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// LogRequest emits one completion line for an HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("request completed")
}

// WithRequestID attaches a request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request id from the context, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID attaches an authenticated user id to the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// GetUserID extracts the authenticated user id from the context, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// NewRequestID generates a short random base-36 correlation token. Collisions
// are tolerated; ids only need to be distinct across concurrent requests.
func NewRequestID() string {
	return strconv.FormatInt(rand.Int63(), 36)
}
