package logging

import (
	"context"
	"log/slog"

	"comicflow/internal/services"
)

// Structured keys shared by every handler. The console handler lifts
// component, run, stage and shot into the line prefix.
const (
	FieldComponent     = "component"
	FieldRunID         = "run_id"
	FieldStage         = "stage"
	FieldShotID        = "shot_id"
	FieldCorrelationID = "correlation_id"

	FieldEventType    = "event_type"    // stage_start, stage_failure, mode_downgrade, ...
	FieldErrorHint    = "error_hint"    // next step for the operator
	FieldErrorKind    = "error_kind"    // services error marker
	FieldErrorCode    = "error_code"    // PLAN_FAILED, GENERATE_FAILED, ...
	FieldImpact       = "impact"        // consequence of a warning
	FieldDecisionType = "decision_type" // control_mode, draft_mode, ...
	FieldAlert        = "alert"
)

// ContextFields returns the run, stage, shot and correlation ids carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	lookups := []struct {
		key string
		get func(context.Context) (string, bool)
	}{
		{FieldRunID, services.RunIDFromContext},
		{FieldStage, services.StageFromContext},
		{FieldShotID, services.ShotIDFromContext},
		{FieldCorrelationID, services.RequestIDFromContext},
	}
	var fields []slog.Attr
	for _, l := range lookups {
		if v, ok := l.get(ctx); ok {
			fields = append(fields, slog.String(l.key, v))
		}
	}
	return fields
}

// WithContext tags logger with the ids carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
