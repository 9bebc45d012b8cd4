package logging

import (
	"context"
	"io"
	"log/slog"
)

// tee forwards each record to every sink that accepts its level. Sinks keep
// their own minimum level, so the console and the run log can disagree.
type tee []slog.Handler

func newTee(handlers ...slog.Handler) slog.Handler {
	var sinks tee
	for _, h := range handlers {
		if h != nil {
			sinks = append(sinks, h)
		}
	}
	if len(sinks) == 0 {
		return discard{}
	}
	if len(sinks) == 1 {
		return sinks[0]
	}
	return sinks
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, record slog.Record) error {
	var first error
	last := len(t) - 1
	for i, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		// Handlers may retain the record's attrs; only the final sink gets the original.
		rec := record
		if i != last {
			rec = record.Clone()
		}
		if err := h.Handle(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

// TeeLogger returns a logger writing to base's handler and every extra sink.
func TeeLogger(base *slog.Logger, sinks ...slog.Handler) *slog.Logger {
	if base != nil {
		sinks = append([]slog.Handler{base.Handler()}, sinks...)
	}
	return slog.New(newTee(sinks...))
}

// NewRunLogger mirrors base into a JSON log file at path. Every line written
// to the run log is tagged with the run id. Callers must close the returned
// closer once the run finishes.
func NewRunLogger(base *slog.Logger, path, runID, level string) (*slog.Logger, io.Closer, error) {
	file, err := OpenLogFile(path)
	if err != nil {
		return nil, nil, err
	}
	lvl := new(slog.LevelVar)
	lvl.Set(ParseLevel(level))
	sink := newJSONHandler(file, lvl, false)
	if runID != "" {
		sink = sink.WithAttrs([]slog.Attr{slog.String(FieldRunID, runID)})
	}
	return TeeLogger(base, sink), file, nil
}
