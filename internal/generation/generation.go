package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"comicflow/internal/capability"
	"comicflow/internal/logging"
	"comicflow/internal/resolver"
	"comicflow/internal/runstore"
	"comicflow/internal/services"
	"comicflow/internal/services/seedance"
	"comicflow/internal/stage"
	"comicflow/internal/timeline"
	"comicflow/internal/workflow"
)

// LogFileName is the generation log inside the run's logs directory.
const LogFileName = "generation.json"

// ClientFactory returns the backend client for an engine name.
type ClientFactory func(engine string) (seedance.Client, error)

// Log is the persisted generation log.
type Log struct {
	RunID string     `json:"run_id"`
	Shots []LogEntry `json:"shots"`
}

// LogEntry records the outcome of one shot.
type LogEntry struct {
	ShotID               string               `json:"shot_id"`
	Status               string               `json:"status"`
	Engine               string               `json:"engine"`
	ModelID              string               `json:"model_id"`
	DraftMode            bool                 `json:"draft_mode"`
	RequestedControlMode timeline.ControlMode `json:"requested_control_mode"`
	EffectiveControlMode timeline.ControlMode `json:"effective_control_mode"`
	DurationSec          float64              `json:"duration_sec"`
	Attempt              int                  `json:"attempt"`
	Warnings             []string             `json:"warnings"`
	GeneratedAt          string               `json:"generated_at"`
}

// Generator is the generate stage handler.
type Generator struct {
	registry *capability.Registry
	clients  ClientFactory
	logger   *slog.Logger
}

// NewGenerator constructs the handler. A nil factory selects clients with
// seedance.ForEngine.
func NewGenerator(registry *capability.Registry, clients ClientFactory, logger *slog.Logger) *Generator {
	if registry == nil {
		registry = capability.Default()
	}
	if clients == nil {
		clients = func(engine string) (seedance.Client, error) { return seedance.ForEngine(engine) }
	}
	g := &Generator{registry: registry, clients: clients}
	g.SetLogger(logger)
	return g
}

// SetLogger replaces the handler logger.
func (g *Generator) SetLogger(logger *slog.Logger) {
	g.logger = logging.NewComponentLogger(logger, "generator")
}

// HealthCheck verifies the default engine can be selected.
func (g *Generator) HealthCheck(context.Context) stage.Health {
	if g.registry.Len() == 0 {
		return stage.Unhealthy("generate", "capability registry is empty")
	}
	_, err := g.clients(seedance.EngineAPI)
	return stage.CheckErr("generate", err)
}

// Generate resolves and produces every shot in order.
func (g *Generator) Generate(ctx context.Context, env stage.Env, tl timeline.Timeline, cfg workflow.GenerateConfig) (workflow.GenerateOutput, error) {
	client, err := g.clients(cfg.Engine)
	if err != nil {
		return workflow.GenerateOutput{}, err
	}
	defaults := resolver.Defaults{
		ModelID:      cfg.ModelID,
		DraftMode:    cfg.Draft(),
		FallbackMode: cfg.FallbackMode,
	}

	resolved := tl.Clone()
	shotPaths := make([]string, 0, len(resolved.Shots))
	entries := make([]LogEntry, 0, len(resolved.Shots))
	started := time.Now()

	for i, shot := range resolved.Shots {
		if err := ctx.Err(); err != nil {
			return workflow.GenerateOutput{}, err
		}
		shotCtx := services.WithShotID(ctx, shot.ShotID)
		shotLogger := logging.WithContext(shotCtx, g.logger)

		res, err := resolver.Resolve(g.registry, shot, defaults)
		if err != nil {
			return workflow.GenerateOutput{}, err
		}
		resolved.Shots[i] = res.Shot
		for _, warning := range res.Warnings {
			logging.WarnWithContext(shotLogger, "shot plan adjusted", "mode_downgrade",
				logging.String("warning", warning),
				logging.String(logging.FieldImpact, "shot generated with adjusted settings"),
				logging.String(logging.FieldErrorHint, "pick a model that supports the requested settings"),
			)
		}
		shotLogger.Debug(
			"shot resolved",
			logging.Args(append(
				logging.DecisionAttrs("control_mode", string(res.EffectiveMode), fmt.Sprintf("requested %s", res.RequestedMode)),
				logging.String("model_id", res.ModelID),
				logging.Bool("draft_mode", res.DraftMode),
			)...)...,
		)

		req := seedance.Request{
			RunID:         env.RunID,
			ShotID:        res.Shot.ShotID,
			Prompt:        res.Shot.Prompt,
			Mode:          res.EffectiveMode,
			RequestedMode: res.RequestedMode,
			ModelID:       res.ModelID,
			DraftMode:     res.DraftMode,
			ImageRefs:     res.Shot.Refs.ImageAssetIDs,
			AudioRefs:     res.Shot.Refs.AudioAssetIDs,
			DurationSec:   res.Shot.DurationSec,
			OutputPath:    env.Layout.ShotPath(res.Shot.ShotID),
		}
		resp, err := client.Generate(shotCtx, req, func(u seedance.ProgressUpdate) {
			shotLogger.Debug("generation progress", logging.Float64("percent", u.Percent), logging.String("message", u.Message))
		})
		if err != nil {
			return workflow.GenerateOutput{}, services.Wrap(services.ErrExecution, "generate", "generate shot",
				fmt.Sprintf("shot %s", res.Shot.ShotID), err)
		}

		generatedAt := env.Timestamp()
		if !resp.GeneratedAt.IsZero() {
			generatedAt = resp.GeneratedAt.UTC().Format(time.RFC3339)
		}
		shotPaths = append(shotPaths, resp.Path)
		entries = append(entries, LogEntry{
			ShotID:               res.Shot.ShotID,
			Status:               "completed",
			Engine:               cfg.Engine,
			ModelID:              res.ModelID,
			DraftMode:            res.DraftMode,
			RequestedControlMode: res.RequestedMode,
			EffectiveControlMode: res.EffectiveMode,
			DurationSec:          res.Shot.DurationSec,
			Attempt:              resp.Attempt,
			Warnings:             res.Warnings,
			GeneratedAt:          generatedAt,
		})
		shotLogger.Info(
			"shot generated",
			logging.String(logging.FieldEventType, "shot_generated"),
			logging.String("effective_mode", string(res.EffectiveMode)),
			logging.String("model_id", res.ModelID),
			logging.Int("warning_count", len(res.Warnings)),
		)
	}

	logPath := env.Layout.Log(LogFileName)
	if err := runstore.WriteJSON(logPath, Log{RunID: env.RunID, Shots: entries}); err != nil {
		return workflow.GenerateOutput{}, services.Wrap(services.ErrExecution, "generate", "write log", "persist generation log", err)
	}

	g.logger.Info(
		"generation finished",
		logging.Int("shot_count", len(shotPaths)),
		logging.Duration("generation_duration", time.Since(started)),
	)

	out := workflow.GenerateOutput{Timeline: resolved, ShotPaths: shotPaths}
	out.AddArtifact(env, "shot_videos", env.Layout.ShotsDir())
	out.AddArtifact(env, "generation_log_json", logPath)
	out.SetOutput("shots", env.Layout.Rel(env.Layout.ShotsDir()))
	return out, nil
}

// ReadLog loads a persisted generation log.
func ReadLog(path string) (Log, error) {
	var log Log
	if err := runstore.ReadJSON(path, &log); err != nil {
		return Log{}, err
	}
	return log, nil
}
