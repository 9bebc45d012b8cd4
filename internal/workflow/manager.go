package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"comicflow/internal/config"
	"comicflow/internal/logging"
	"comicflow/internal/runstore"
	"comicflow/internal/services"
	"comicflow/internal/stage"
)

// Manager executes runs against a fixed StageSet.
type Manager struct {
	cfg         *config.Config
	logger      *slog.Logger
	stages      StageSet
	projectRoot string
	clock       func() time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for stamps and reports.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewManager constructs a manager. Every stage handler must be present.
func NewManager(cfg *config.Config, projectRoot string, stages StageSet, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	if missing := stages.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("stage handlers missing: %v", missing)
	}
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "workflow-manager"),
		stages:      stages,
		projectRoot: projectRoot,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Layout returns the output layout for runID.
func (m *Manager) Layout(runID string) runstore.Layout {
	return runstore.NewLayout(m.projectRoot, m.cfg.OutputsRoot(m.projectRoot), runID)
}

// Execute runs plan, generate, assemble, and eval in order. The run state is
// persisted once on either outcome. On stage failure the returned error is a
// *RunError and the returned run reflects the failed state.
func (m *Manager) Execute(ctx context.Context, run *Run) (*Run, error) {
	if run == nil {
		return nil, errors.New("run is required")
	}
	if strings.TrimSpace(run.Meta.RunID) == "" {
		run.Meta.RunID = NewRunID()
	}
	if err := ValidateRunID(run.Meta.RunID); err != nil {
		return run, err
	}
	layout := m.Layout(run.Meta.RunID)
	if err := layout.Ensure(); err != nil {
		return run, services.Wrap(services.ErrExecution, "", "prepare run", "create output tree", err)
	}
	lock, err := runstore.AcquireRunLock(layout.RunDir)
	if err != nil {
		return run, services.Wrap(services.ErrExecution, "", "prepare run", "lock run directory", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	logger, closer := m.runLogger(layout, run.Meta.RunID)
	defer func() {
		if closer != nil {
			_ = closer.Close()
		}
	}()

	ctx = services.WithRunID(ctx, run.Meta.RunID)
	env := stage.Env{RunID: run.Meta.RunID, Layout: layout, Clock: m.clock}

	runStart := m.clock()
	run.Begin(runStart)
	logging.WithContext(ctx, logger).Info(
		"run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("run_dir", layout.Rel(layout.RunDir)),
		logging.String("engine", run.Config.Generate.Engine),
		logging.String("model_id", run.Config.Generate.ModelID),
	)

	execErr := m.executeStages(ctx, env, logger, run)

	status := StatusCompleted
	if execErr != nil {
		status = StatusFailed
	}
	run.Finish(m.clock(), status)

	statePath := layout.StatePath()
	if err := runstore.WriteJSON(statePath, run); err != nil {
		logging.ErrorWithContext(logger, "failed to persist run state", "state_persist_failure",
			logging.String("state_path", statePath), logging.Error(err))
		persistErr := services.Wrap(services.ErrExecution, "", "persist run", "write state document", err)
		if execErr != nil {
			return run, errors.Join(execErr, persistErr)
		}
		return run, persistErr
	}

	runLogger := logging.WithContext(ctx, logger)
	if execErr != nil {
		runLogger.Error(
			"run failed",
			logging.String(logging.FieldEventType, "run_failure"),
			logging.String("state_path", layout.Rel(statePath)),
			logging.Duration("run_duration", time.Since(runStart)),
			logging.Error(execErr),
		)
		return run, execErr
	}
	runLogger.Info(
		"run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("state_path", layout.Rel(statePath)),
		logging.Duration("run_duration", time.Since(runStart)),
	)
	return run, nil
}

// executeStages threads each stage's principal output into the next. The
// sequence is spelled out per stage so each handler keeps its own types.
func (m *Manager) executeStages(ctx context.Context, env stage.Env, logger *slog.Logger, run *Run) error {
	var plan PlanOutput
	if err := m.runStage(ctx, env, logger, run, StagePlan, m.stages.Planner, func(ctx context.Context) (stage.Result, error) {
		out, err := m.stages.Planner.Plan(ctx, env, run.Config.Plan)
		plan = out
		return out.Result, err
	}); err != nil {
		return err
	}

	var generated GenerateOutput
	if err := m.runStage(ctx, env, logger, run, StageGenerate, m.stages.Generator, func(ctx context.Context) (stage.Result, error) {
		out, err := m.stages.Generator.Generate(ctx, env, plan.Timeline, run.Config.Generate)
		generated = out
		return out.Result, err
	}); err != nil {
		return err
	}

	var assembled AssembleOutput
	if err := m.runStage(ctx, env, logger, run, StageAssemble, m.stages.Assembler, func(ctx context.Context) (stage.Result, error) {
		out, err := m.stages.Assembler.Assemble(ctx, env, generated.ShotPaths, run.Config.Assemble)
		assembled = out
		return out.Result, err
	}); err != nil {
		return err
	}
	logger.Debug("final artifact ready", logging.String("path", env.Layout.Rel(assembled.FinalPath)))

	return m.runStage(ctx, env, logger, run, StageEval, m.stages.Evaluator, func(ctx context.Context) (stage.Result, error) {
		out, err := m.stages.Evaluator.Evaluate(ctx, env, generated.Timeline, run.Config.Eval)
		return out.Result, err
	})
}

func (m *Manager) runLogger(layout runstore.Layout, runID string) (*slog.Logger, io.Closer) {
	logger, closer, err := logging.NewRunLogger(m.logger, layout.RunLogPath(), runID, "debug")
	if err != nil {
		m.logger.Warn("run log unavailable", logging.String("path", layout.RunLogPath()), logging.Error(err))
		return m.logger, nil
	}
	return logger, closer
}
