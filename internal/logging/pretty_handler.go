package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one human-readable line per record:
//
//	2026-05-04T12:00:00Z INFO generation: [run-1 · generate · shot S01] shot generated mode=keyframes
type prettyHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  *slog.LevelVar
	source bool
	attrs  []field
	prefix string
}

type field struct {
	key   string
	value slog.Value
}

// subject holds the attrs that are lifted out of key=value pairs and shown
// as the line's component and bracketed subject.
type subject struct {
	component, run, stage, shot string
}

func (s *subject) take(f field) bool {
	switch f.key {
	case FieldComponent:
		if s.component == "" {
			s.component = valueText(f.value)
		}
	case FieldRunID:
		s.run = valueText(f.value)
	case FieldStage:
		s.stage = valueText(f.value)
	case FieldShotID:
		s.shot = valueText(f.value)
	default:
		return false
	}
	return true
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, source bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), out: w, level: lvl, source: source}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.Enabled(context.Background(), r.Level) {
		return nil
	}
	fields := append([]field(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a)
		return true
	})

	var subj subject
	rest := fields[:0]
	for _, f := range fields {
		if !subj.take(f) {
			rest = append(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteString(" " + levelLabel(r.Level) + " ")
	if subj.component != "" {
		b.WriteString(subj.component + ": ")
	}
	if s := FormatSubject(subj.run, subj.stage, subj.shot); s != "" {
		b.WriteString("[" + s + "] ")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if h.source {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		if f.key != "" {
			b.WriteString(" " + f.key + "=" + valueLiteral(f.value))
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]field(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = appendAttr(next.attrs, h.prefix, a)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendAttr flattens groups into dotted keys.
func appendAttr(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return append(dst, field{key: prefix + a.Key, value: v})
	}
	inner := prefix
	if a.Key != "" {
		inner += a.Key + "."
	}
	for _, g := range v.Group() {
		dst = appendAttr(dst, inner, g)
	}
	return dst
}

func valueText(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return v.String()
	}
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v.Any())
}

func valueLiteral(v slog.Value) string {
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	}
	s := valueText(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
