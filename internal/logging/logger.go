package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"comicflow/internal/config"
)

// LogFileName is the shared log written under paths.log_dir.
const LogFileName = "comicflow.log"

// NewHandler builds a console or JSON handler writing to w. Debug level (or
// development mode) adds file:line to every record.
func NewHandler(w io.Writer, format, level string, development bool) (slog.Handler, error) {
	lvl := new(slog.LevelVar)
	lvl.Set(ParseLevel(level))
	withSource := development || lvl.Level() <= slog.LevelDebug

	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "json":
		return newJSONHandler(w, lvl, withSource), nil
	case "", "console":
		return newPrettyHandler(w, lvl, withSource), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", format)
	}
}

// NewFromConfig creates the process logger. Records go to stderr and, when
// paths.log_dir is set, are appended to comicflow.log there as well. The
// returned closer releases the log file and must be closed by the caller.
func NewFromConfig(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		h, err := NewHandler(os.Stderr, "console", "info", false)
		if err != nil {
			return nil, nil, err
		}
		return slog.New(h), nopCloser{}, nil
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		file, err := OpenLogFile(filepath.Join(dir, LogFileName))
		if err != nil {
			return nil, nil, err
		}
		w, closer = io.MultiWriter(os.Stderr, file), file
	}

	// The base handler admits the most verbose level any stage asks for; the
	// wrapper then restores the global floor for loggers without an override.
	h, err := NewHandler(w, cfg.Logging.Format, verboseLevel(cfg).String(), false)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return slog.New(newLevelOverrideHandler(h, ParseLevel(cfg.Logging.Level))), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel maps a textual level to slog. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// OpenLogFile opens path for appending, creating parent directories.
func OpenLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
