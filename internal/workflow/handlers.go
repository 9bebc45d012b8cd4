package workflow

import (
	"context"

	"comicflow/internal/stage"
	"comicflow/internal/timeline"
)

// Planner loads and validates the timeline.
type Planner interface {
	Plan(ctx context.Context, env stage.Env, cfg PlanConfig) (PlanOutput, error)
}

// PlanOutput is the plan stage's principal output.
type PlanOutput struct {
	stage.Result
	Timeline timeline.Timeline
}

// Generator resolves and generates every shot in timeline order.
type Generator interface {
	Generate(ctx context.Context, env stage.Env, tl timeline.Timeline, cfg GenerateConfig) (GenerateOutput, error)
}

// GenerateOutput carries the resolved timeline and the ordered shot artifacts.
type GenerateOutput struct {
	stage.Result
	Timeline  timeline.Timeline
	ShotPaths []string
}

// Assembler composes shot artifacts into the final artifact.
type Assembler interface {
	Assemble(ctx context.Context, env stage.Env, shotPaths []string, cfg AssembleConfig) (AssembleOutput, error)
}

// AssembleOutput names the composed artifact.
type AssembleOutput struct {
	stage.Result
	FinalPath string
}

// Evaluator scores the run and selects shots for regeneration.
type Evaluator interface {
	Evaluate(ctx context.Context, env stage.Env, tl timeline.Timeline, cfg EvalConfig) (EvalOutput, error)
}

// EvalOutput summarizes the evaluation report.
type EvalOutput struct {
	stage.Result
	TotalScore float64
	Threshold  float64
	RegenQueue []string
}

// StageSet bundles the concrete handlers the manager orchestrates.
type StageSet struct {
	Planner   Planner
	Generator Generator
	Assembler Assembler
	Evaluator Evaluator
}

func (s StageSet) missing() []StageName {
	var out []StageName
	if s.Planner == nil {
		out = append(out, StagePlan)
	}
	if s.Generator == nil {
		out = append(out, StageGenerate)
	}
	if s.Assembler == nil {
		out = append(out, StageAssemble)
	}
	if s.Evaluator == nil {
		out = append(out, StageEval)
	}
	return out
}

// HealthChecks collects readiness from handlers that report it.
func (s StageSet) HealthChecks(ctx context.Context) []stage.Health {
	var out []stage.Health
	for _, h := range []any{s.Planner, s.Generator, s.Assembler, s.Evaluator} {
		if checker, ok := h.(stage.HealthChecker); ok {
			out = append(out, checker.HealthCheck(ctx))
		}
	}
	return out
}
