package logging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rollbar/rollbar-go"
)

// RollbarHandler forwards records at Error and above to Rollbar and always
// passes them on to next.
type RollbarHandler struct {
	next  slog.Handler
	attrs []slog.Attr
}

func NewRollbarHandler(next slog.Handler, token, env, version string) *RollbarHandler {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(version)
	return &RollbarHandler{next: next}
}

func (h *RollbarHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *RollbarHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		h.report(r)
	}
	return h.next.Handle(ctx, r)
}

func (h *RollbarHandler) report(r slog.Record) {
	extras := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	var cause error
	collect := func(a slog.Attr) bool {
		if e, ok := a.Value.Any().(error); ok && cause == nil {
			cause = e
		}
		extras[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if cause == nil {
		cause = errors.New(r.Message)
	}
	level := rollbar.ERR
	if r.Level > slog.LevelError {
		level = rollbar.CRIT
	}
	rollbar.Log(level, r.Message, cause, extras)
}

func (h *RollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RollbarHandler{
		next:  h.next.WithAttrs(attrs),
		attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *RollbarHandler) WithGroup(name string) slog.Handler {
	return &RollbarHandler{next: h.next.WithGroup(name), attrs: h.attrs}
}

// Flush waits for queued Rollbar items; call before exit.
func Flush() { rollbar.Wait() }
