package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"comicflow/internal/assembly"
	"comicflow/internal/capability"
	"comicflow/internal/config"
	"comicflow/internal/evaluation"
	"comicflow/internal/generation"
	"comicflow/internal/logging"
	"comicflow/internal/planning"
	"comicflow/internal/runstore"
	"comicflow/internal/services"
	"comicflow/internal/stage"
	"comicflow/internal/testsupport"
	"comicflow/internal/timeline"
	"comicflow/internal/workflow"
)

const keyframeModel = "test-t2v-keyframes"

func newStageSet(cfg *config.Config) workflow.StageSet {
	logger := logging.NewNop()
	return workflow.StageSet{
		Planner:   planning.NewPlanner(logger),
		Generator: generation.NewGenerator(capability.FromConfig(cfg), nil, logger),
		Assembler: assembly.NewAssembler(logger),
		Evaluator: evaluation.NewEvaluator(logger),
	}
}

func newManager(t *testing.T, cfg *config.Config, stages workflow.StageSet) *workflow.Manager {
	t.Helper()
	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	mgr, err := workflow.NewManager(cfg, testsupport.ProjectRoot(cfg), stages, logging.NewNop(),
		workflow.WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr
}

func readState(t *testing.T, path string) workflow.Run {
	t.Helper()
	var state workflow.Run
	if err := runstore.ReadJSON(path, &state); err != nil {
		t.Fatalf("read state %s: %v", path, err)
	}
	return state
}

func TestExecuteKeyframesFallbackRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithModels(config.Model{
		ID:                keyframeModel,
		Label:             "T2V + keyframes",
		TextToVideo:       true,
		ImageFirstAndLast: true,
	}))
	root := testsupport.ProjectRoot(cfg)
	testsupport.WriteTimeline(t, root, "timelines/three.json",
		testsupport.SequentialShots(3, 5, "i2v", keyframeModel))
	descriptor := testsupport.WriteWorkflow(t, root, "workflows/workflow.v1.json",
		testsupport.WorkflowDoc("kf-run", "timelines/three.json", map[string]any{"model_id": keyframeModel}))

	run, err := workflow.LoadDescriptor(descriptor, cfg)
	if err != nil {
		t.Fatalf("LoadDescriptor: %v", err)
	}
	mgr := newManager(t, cfg, newStageSet(cfg))
	run, err = mgr.Execute(context.Background(), run)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if run.Meta.Status != workflow.StatusCompleted {
		t.Fatalf("run status = %s", run.Meta.Status)
	}

	layout := mgr.Layout("kf-run")
	state := readState(t, layout.StatePath())
	if state.Meta.Status != workflow.StatusCompleted || state.Meta.RunID != "kf-run" {
		t.Fatalf("persisted meta = %+v", state.Meta)
	}
	if len(state.Stages) != 4 {
		t.Fatalf("expected 4 persisted stages, got %d", len(state.Stages))
	}
	for i, st := range state.Stages {
		if st.Name != workflow.StageOrder[i] || st.Status != workflow.StatusCompleted {
			t.Fatalf("stage %d = %s/%s", i, st.Name, st.Status)
		}
		if st.StartedAt == nil || st.FinishedAt == nil || st.Error != nil {
			t.Fatalf("stage %s stamps/error = %+v", st.Name, st)
		}
		for _, artifact := range st.Artifacts {
			if filepath.IsAbs(artifact.Path) || !strings.HasPrefix(artifact.Path, "outputs/kf-run/") {
				t.Fatalf("artifact path not project-relative: %+v", artifact)
			}
		}
	}

	log, err := generation.ReadLog(layout.Log(generation.LogFileName))
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(log.Shots) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(log.Shots))
	}
	wantWarning := "control_mode i2v not supported by " + keyframeModel + ", switched to keyframes"
	for _, entry := range log.Shots {
		if entry.EffectiveControlMode != timeline.ModeKeyframes || entry.RequestedControlMode != timeline.ModeImageToVideo {
			t.Fatalf("shot %s modes = %s -> %s", entry.ShotID, entry.RequestedControlMode, entry.EffectiveControlMode)
		}
		found := false
		for _, w := range entry.Warnings {
			if w == wantWarning {
				found = true
			}
		}
		if !found {
			t.Fatalf("shot %s missing switch warning in %v", entry.ShotID, entry.Warnings)
		}
	}

	for _, rel := range []string{
		"timeline.v1.json",
		"reports/plan.md",
		"shots/S01.mp4",
		"shots/S03.mp4",
		"assembly/final.mp4",
		"logs/assembly.log",
		"reports/eval.json",
		"reports/eval.md",
		"reports/regen_queue.json",
		"logs/run.log",
	} {
		if _, err := os.Stat(filepath.Join(layout.RunDir, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
}

func TestExecuteMissingTimelineFailsPlan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	run := workflow.NewRun("missing-timeline", cfg)
	run.Config.Plan.TimelineSource = "timelines/absent.json"

	mgr := newManager(t, cfg, newStageSet(cfg))
	run, err := mgr.Execute(context.Background(), run)
	if err == nil {
		t.Fatal("expected execute error")
	}
	var runErr *workflow.RunError
	if !errors.As(err, &runErr) || runErr.Stage != workflow.StagePlan {
		t.Fatalf("expected plan RunError, got %v", err)
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}

	state := readState(t, mgr.Layout("missing-timeline").StatePath())
	if state.Meta.Status != workflow.StatusFailed || run.Meta.Status != workflow.StatusFailed {
		t.Fatalf("run status = %s (persisted %s)", run.Meta.Status, state.Meta.Status)
	}
	plan := state.Stage(workflow.StagePlan)
	if plan.Status != workflow.StatusFailed || plan.Error == nil {
		t.Fatalf("plan stage = %+v", plan)
	}
	if plan.Error.Code != "PLAN_FAILED" || plan.Error.Retryable {
		t.Fatalf("plan error = %+v", plan.Error)
	}
	for _, name := range workflow.StageOrder[1:] {
		if st := state.Stage(name); st.Status != workflow.StatusPending {
			t.Fatalf("stage %s = %s, want pending", name, st.Status)
		}
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, stage.Env, timeline.Timeline, workflow.GenerateConfig) (workflow.GenerateOutput, error) {
	return workflow.GenerateOutput{}, services.Wrap(services.ErrExecution, "generate", "generate shot", "provider unavailable", nil)
}

func TestExecuteGenerateFailureIsRetryable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := testsupport.ProjectRoot(cfg)
	testsupport.WriteTimeline(t, root, "timeline.json", testsupport.SequentialShots(2, 5, "t2v", ""))
	run := workflow.NewRun("gen-fail", cfg)
	run.Config.Plan.TimelineSource = "timeline.json"

	stages := newStageSet(cfg)
	stages.Generator = failingGenerator{}
	mgr := newManager(t, cfg, stages)
	run, err := mgr.Execute(context.Background(), run)
	if err == nil {
		t.Fatal("expected execute error")
	}
	failed := run.FailedStage()
	if failed == nil || failed.Name != workflow.StageGenerate {
		t.Fatalf("failed stage = %+v", failed)
	}
	if failed.Error.Code != "GENERATE_FAILED" || !failed.Error.Retryable || failed.Error.Message != "provider unavailable" {
		t.Fatalf("stage error = %+v", failed.Error)
	}
	if run.Stage(workflow.StagePlan).Status != workflow.StatusCompleted {
		t.Fatal("plan should have completed")
	}
	if run.Stage(workflow.StageAssemble).Status != workflow.StatusPending {
		t.Fatal("assemble should remain pending")
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	run := workflow.NewRun("cancelled", cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mgr := newManager(t, cfg, newStageSet(cfg))
	run, err := mgr.Execute(ctx, run)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	plan := run.Stage(workflow.StagePlan)
	if plan.Status != workflow.StatusFailed || plan.Error.Message != "run cancelled" {
		t.Fatalf("plan stage = %+v", plan)
	}
	if _, err := os.Stat(mgr.Layout("cancelled").StatePath()); err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
}

func TestExecuteRejectsRunIDOutsideOutputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	root := testsupport.ProjectRoot(cfg)
	for _, id := range []string{"..", ".", "?"} {
		run := workflow.NewRun(id, cfg)
		mgr := newManager(t, cfg, newStageSet(cfg))
		if _, err := mgr.Execute(context.Background(), run); !errors.Is(err, services.ErrConfiguration) {
			t.Fatalf("run id %q: expected configuration error, got %v", id, err)
		}
		for _, dir := range []string{root, filepath.Dir(mgr.Layout("x").RunDir)} {
			if _, err := os.Stat(filepath.Join(dir, runstore.StateFileName)); err == nil {
				t.Fatalf("run id %q wrote state into %s", id, dir)
			}
		}
	}
}

func TestExecuteHonorsStageLogOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "warn"
	cfg.Logging.StageOverrides = map[string]string{"generate": "debug"}
	root := testsupport.ProjectRoot(cfg)
	testsupport.WriteTimeline(t, root, "timeline.json", testsupport.SequentialShots(1, 5, "t2v", ""))
	run := workflow.NewRun("override-run", cfg)
	run.Config.Plan.TimelineSource = "timeline.json"

	logger, closer, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	defer closer.Close()
	mgr, err := workflow.NewManager(cfg, root, newStageSet(cfg), logger)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := mgr.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read process log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "stage_label=Generate") {
		t.Fatalf("expected generate stage_start in process log, got %q", text)
	}
	if !strings.Contains(text, "shot generated") {
		t.Fatalf("expected generate info lines in process log, got %q", text)
	}
	if strings.Contains(text, "stage_label=Plan") {
		t.Fatalf("plan info should stay below the warn floor, got %q", text)
	}
}

func TestNewManagerRequiresAllStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stages := newStageSet(cfg)
	stages.Evaluator = nil
	if _, err := workflow.NewManager(cfg, t.TempDir(), stages, nil); err == nil {
		t.Fatal("expected error for missing evaluator")
	}
}

func TestStageSetHealthChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	checks := newStageSet(cfg).HealthChecks(context.Background())
	if len(checks) == 0 {
		t.Fatal("expected at least the generator health check")
	}
	for _, h := range checks {
		if !h.Ready {
			t.Fatalf("unexpected unhealthy stage: %+v", h)
		}
	}
}
