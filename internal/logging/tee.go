package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Tee fans a record out to every sink that accepts its level.
type Tee struct {
	sinks []slog.Handler
}

// NewTee creates a handler writing to all sinks.
func NewTee(sinks ...slog.Handler) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range t.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to each enabled sink and joins their errors. A failing
// sink does not stop the others.
func (t *Tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range t.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t *Tee) WithGroup(name string) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t *Tee) derive(fn func(slog.Handler) slog.Handler) *Tee {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, s := range t.sinks {
		sinks[i] = fn(s)
	}
	return &Tee{sinks: sinks}
}
