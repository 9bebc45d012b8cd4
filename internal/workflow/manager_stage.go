package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"comicflow/internal/logging"
	"comicflow/internal/services"
	"comicflow/internal/stage"
)

func (m *Manager) runStage(
	ctx context.Context,
	env stage.Env,
	base *slog.Logger,
	run *Run,
	name StageName,
	handler any,
	exec func(context.Context) (stage.Result, error),
) error {
	st := run.Stage(name)
	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(ctx, string(name)), requestID)
	stageLogger := logging.WithContext(stageCtx, logging.ForStage(base, m.cfg, string(name)))
	if aware, ok := handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageStart := m.clock()
	if err := st.Start(stageStart); err != nil {
		return err
	}
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("stage_label", name.Label()),
	)

	result, err := m.guard(stageCtx, exec)
	if err != nil {
		return m.handleStageFailure(stageCtx, stageLogger, run, st, err)
	}

	if err := st.Complete(m.clock(), result.Artifacts, result.Outputs); err != nil {
		return err
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("artifact_count", len(st.Artifacts)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// guard refuses to enter a stage once ctx is done.
func (m *Manager) guard(ctx context.Context, exec func(context.Context) (stage.Result, error)) (stage.Result, error) {
	if err := ctx.Err(); err != nil {
		return stage.Result{}, err
	}
	return exec(ctx)
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, run *Run, st *Stage, stageErr error) error {
	info := NewStageError(st.Name, stageErr)
	if err := st.Fail(m.clock(), info); err != nil {
		return err
	}

	details := services.Details(stageErr)
	attrs := []logging.Attr{
		logging.String(logging.FieldErrorCode, info.Code),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String("error_message", info.Message),
		logging.Bool("retryable", info.Retryable),
		logging.Alert("stage_failure"),
	}
	if details.Operation != "" {
		attrs = append(attrs, logging.String("error_operation", details.Operation))
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	hint := "fix the workflow inputs and start a new run"
	if info.Retryable {
		hint = "rerun the workflow; the failure is marked retryable"
	}
	attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	logging.ErrorWithContext(logger, "stage failed", "stage_failure", attrs...)

	return &RunError{RunID: run.Meta.RunID, Stage: st.Name, Info: info, Err: stageErr}
}
