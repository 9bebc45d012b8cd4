package logging

import (
	"context"
	"log/slog"

	"comicflow/internal/config"
)

// floorHandler drops records below min before they reach next. next is built
// at the most verbose level any stage needs, so the floor is what actually
// filters.
type floorHandler struct {
	next slog.Handler
	min  slog.Level
}

func newLevelOverrideHandler(next slog.Handler, level slog.Level) slog.Handler {
	if next == nil {
		return discard{}
	}
	return floorHandler{next: next, min: level}
}

func (h floorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h floorHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.min {
		return nil
	}
	return h.next.Handle(ctx, r)
}

func (h floorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return floorHandler{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h floorHandler) WithGroup(name string) slog.Handler {
	return floorHandler{next: h.next.WithGroup(name), min: h.min}
}

// ForStage applies logging.stage_overrides for the named stage. Without an
// override the logger is returned unchanged. Floors anywhere in the handler
// tree (including inside a run log tee) are replaced rather than stacked, so
// an override can lower the level below the global one.
func ForStage(logger *slog.Logger, cfg *config.Config, stage string) *slog.Logger {
	if logger == nil || cfg == nil {
		return logger
	}
	level, ok := cfg.StageLogLevel(stage)
	if !ok {
		return logger
	}
	lvl := ParseLevel(level)
	return slog.New(newLevelOverrideHandler(stripFloors(logger.Handler()), lvl))
}

// stripFloors removes every floorHandler reachable through tees; ForStage
// puts a single floor back on top.
func stripFloors(h slog.Handler) slog.Handler {
	switch v := h.(type) {
	case floorHandler:
		return stripFloors(v.next)
	case tee:
		return v.each(stripFloors)
	}
	return h
}

// verboseLevel returns the most verbose level among the global level and all
// stage overrides.
func verboseLevel(cfg *config.Config) slog.Level {
	lowest := ParseLevel(cfg.Logging.Level)
	for _, lvl := range cfg.Logging.StageOverrides {
		lowest = min(lowest, ParseLevel(lvl))
	}
	return lowest
}
