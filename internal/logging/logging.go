// Package logging builds the process-wide slog logger and carries request
// scoped fields through context.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	mu  sync.RWMutex
	log *slog.Logger
)

type Options struct {
	Env          string // "development" gives text output at debug level
	RollbarToken string
	CodeVersion  string
}

// Init installs the global logger. When a Rollbar token is set, error records
// are also reported to Rollbar.
func Init(opts Options) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if opts.Env == "development" {
		hopts.Level = slog.LevelDebug
		h = slog.NewTextHandler(os.Stdout, hopts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, hopts)
	}
	if opts.RollbarToken != "" {
		h = NewRollbarHandler(h, opts.RollbarToken, opts.Env, opts.CodeVersion)
	}
	l := slog.New(h)
	Set(l)
	return l
}

// Set replaces the global logger. Tests use it to capture output.
func Set(l *slog.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
	slog.SetDefault(l)
}

func L() *slog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	principalKey ctxKey = "principal"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithPrincipal(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, principalKey, email)
}

// FromContext returns the global logger with request_id and principal attached.
func FromContext(ctx context.Context) *slog.Logger {
	l := L()
	var fields []any
	if id := RequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if p, ok := ctx.Value(principalKey).(string); ok && p != "" {
		fields = append(fields, "principal", p)
	}
	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}
