// Package planning implements the plan stage: load the timeline source,
// validate it, and write the timeline snapshot and plan report.
package planning

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"comicflow/internal/logging"
	"comicflow/internal/runstore"
	"comicflow/internal/services"
	"comicflow/internal/stage"
	"comicflow/internal/timeline"
	"comicflow/internal/workflow"
)

// Planner loads timelines relative to the project root.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner constructs the plan stage handler.
func NewPlanner(logger *slog.Logger) *Planner {
	p := &Planner{}
	p.SetLogger(logger)
	return p
}

// SetLogger replaces the handler logger.
func (p *Planner) SetLogger(logger *slog.Logger) {
	p.logger = logging.NewComponentLogger(logger, "planner")
}

// Plan reads and validates the configured timeline source.
func (p *Planner) Plan(ctx context.Context, env stage.Env, cfg workflow.PlanConfig) (workflow.PlanOutput, error) {
	source := strings.TrimSpace(cfg.TimelineSource)
	if source == "" {
		source = workflow.DefaultTimelineSource
	}
	sourcePath := source
	if !filepath.IsAbs(sourcePath) {
		sourcePath = filepath.Join(env.Layout.ProjectRoot, source)
	}

	tl, err := timeline.Load(sourcePath)
	if err != nil {
		return workflow.PlanOutput{}, err
	}
	if err := timeline.Validate(tl); err != nil {
		return workflow.PlanOutput{}, err
	}
	if err := ctx.Err(); err != nil {
		return workflow.PlanOutput{}, err
	}

	timelinePath := env.Layout.TimelinePath()
	if err := timeline.Save(timelinePath, tl); err != nil {
		return workflow.PlanOutput{}, services.Wrap(services.ErrExecution, "plan", "write timeline", "persist timeline snapshot", err)
	}
	reportPath := env.Layout.Report("plan.md")
	if err := runstore.WriteText(reportPath, renderReport(env, source, tl)); err != nil {
		return workflow.PlanOutput{}, services.Wrap(services.ErrExecution, "plan", "write report", "persist plan report", err)
	}

	p.logger.Info(
		"timeline validated",
		logging.String(logging.FieldEventType, "timeline_validated"),
		logging.String("timeline_source", source),
		logging.Int("shot_count", len(tl.Shots)),
	)

	out := workflow.PlanOutput{Timeline: tl}
	out.AddArtifact(env, "timeline_json", timelinePath)
	out.AddArtifact(env, "plan_report_md", reportPath)
	out.SetOutput("timeline", env.Layout.Rel(timelinePath))
	return out, nil
}

func renderReport(env stage.Env, source string, tl timeline.Timeline) string {
	var b strings.Builder
	b.WriteString("# Plan Report\n\n")
	fmt.Fprintf(&b, "- Generated at: %s\n", env.Timestamp())
	fmt.Fprintf(&b, "- Source timeline: `%s`\n", source)
	fmt.Fprintf(&b, "- Shots: %d\n", len(tl.Shots))
	if tl.Title != "" {
		fmt.Fprintf(&b, "- Title: %s\n", tl.Title)
	}
	if len(tl.Shots) > 0 {
		b.WriteString("\n| Shot | Start | End | Mode | Plan duration |\n|---|---|---|---|---|\n")
		for _, shot := range tl.Shots {
			fmt.Fprintf(&b, "| %s | %g | %g | %s | %g |\n",
				shot.ShotID, shot.StartSec, shot.EndSec, shot.RequestedMode(), shot.SeedancePlan.DurationSec)
		}
	}
	return b.String()
}
