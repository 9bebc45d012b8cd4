package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr aliases slog.Attr so callers only import this package.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }
func Int(key string, value int) Attr { return slog.Int(key, value) }
func Bool(key string, value bool) Attr { return slog.Bool(key, value) }
func Float64(key string, value float64) Attr { return slog.Float64(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Strings(key string, values []string) Attr { return slog.Any(key, values) }

// Alert tags a record for operator attention (stage failures, degraded runs).
func Alert(kind string) Attr { return slog.String(FieldAlert, kind) }

// Error renders err under the "error" key; nil is logged explicitly.
func Error(err error) Attr {
	if err != nil {
		return slog.Any("error", err)
	}
	return slog.String("error", "<nil>")
}

// Args converts attrs into the variadic form slog.Logger methods accept.
func Args(attrs ...Attr) []any {
	out := make([]any, len(attrs))
	for i := range attrs {
		out[i] = attrs[i]
	}
	return out
}

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger { return slog.New(discard{}) }

// NewComponentLogger scopes logger to a named component. A nil logger
// yields a no-op logger carrying the component.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// fill appends key=value to attrs unless the key is already present.
func fill(attrs []Attr, key, value string) []Attr {
	for _, a := range attrs {
		if a.Key == key {
			return attrs
		}
	}
	return append(attrs, slog.String(key, value))
}

// WarnWithContext logs a degraded-but-continuing event. event_type,
// error_hint and impact are always present in the record.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = fill(attrs, FieldEventType, eventType)
	attrs = fill(attrs, FieldErrorHint, "see run log for details")
	attrs = fill(attrs, FieldImpact, "run continues with degraded output")
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs a failure with event_type and error_hint filled in.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = fill(attrs, FieldEventType, eventType)
	attrs = fill(attrs, FieldErrorHint, "see run log for details")
	logger.Error(msg, Args(attrs...)...)
}

// DecisionAttrs describes an automatic choice, such as a control-mode
// fallback picked by the resolver.
func DecisionAttrs(decisionType, result, reason string) []Attr {
	return []Attr{
		slog.String(FieldDecisionType, decisionType),
		slog.String("decision_result", result),
		slog.String("decision_reason", reason),
	}
}

type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler { return d }
func (d discard) WithGroup(string) slog.Handler { return d }
