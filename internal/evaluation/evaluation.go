package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"comicflow/internal/logging"
	"comicflow/internal/runstore"
	"comicflow/internal/services"
	"comicflow/internal/stage"
	"comicflow/internal/timeline"
	"comicflow/internal/workflow"
)

// Report is the structured evaluation report written to reports/eval.json.
type Report struct {
	RunID       string             `json:"run_id"`
	Threshold   float64            `json:"threshold"`
	TotalScore  float64            `json:"total_score"`
	Scores      map[string]float64 `json:"scores"`
	RegenPolicy string             `json:"regen_policy"`
	RegenQueue  []string           `json:"regen_queue"`
	EvaluatedAt string             `json:"evaluated_at"`
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithScorer replaces the scorer. Score overrides from the descriptor are
// ignored when a custom scorer is set.
func WithScorer(scorer Scorer) Option {
	return func(e *Evaluator) {
		if scorer != nil {
			e.scorer = scorer
		}
	}
}

// WithSelector replaces the policy-derived regeneration selector.
func WithSelector(selector RegenSelector) Option {
	return func(e *Evaluator) {
		if selector != nil {
			e.selector = selector
		}
	}
}

// Evaluator is the eval stage handler.
type Evaluator struct {
	scorer   Scorer
	selector RegenSelector
	logger   *slog.Logger
}

// NewEvaluator constructs the handler.
func NewEvaluator(logger *slog.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	e.SetLogger(logger)
	return e
}

// SetLogger replaces the handler logger.
func (e *Evaluator) SetLogger(logger *slog.Logger) {
	e.logger = logging.NewComponentLogger(logger, "evaluator")
}

// Evaluate scores the run and writes the eval reports.
func (e *Evaluator) Evaluate(ctx context.Context, env stage.Env, tl timeline.Timeline, cfg workflow.EvalConfig) (workflow.EvalOutput, error) {
	scorer := e.scorer
	if scorer == nil {
		scorer = FixedScorer{Overrides: cfg.Scores}
	}
	selector := e.selector
	if selector == nil {
		sel, err := SelectorForPolicy(cfg.RegenPolicy)
		if err != nil {
			return workflow.EvalOutput{}, err
		}
		selector = sel
	}

	scores, err := scorer.Score(ctx, tl)
	if err != nil {
		return workflow.EvalOutput{}, err
	}
	threshold := cfg.Threshold()
	total := Total(scores)
	queue := []string{}
	if total < threshold {
		queue = selector.Select(tl, scores)
		if queue == nil {
			queue = []string{}
		}
	}

	report := Report{
		RunID:       env.RunID,
		Threshold:   threshold,
		TotalScore:  total,
		Scores:      scores,
		RegenPolicy: cfg.RegenPolicy,
		RegenQueue:  queue,
		EvaluatedAt: env.Timestamp(),
	}

	jsonPath := env.Layout.Report("eval.json")
	mdPath := env.Layout.Report("eval.md")
	queuePath := env.Layout.Report("regen_queue.json")
	if err := runstore.WriteJSON(jsonPath, report); err != nil {
		return workflow.EvalOutput{}, services.Wrap(services.ErrExecution, "eval", "write report", "persist eval report", err)
	}
	if err := runstore.WriteJSON(queuePath, map[string][]string{"regen_queue": queue}); err != nil {
		return workflow.EvalOutput{}, services.Wrap(services.ErrExecution, "eval", "write report", "persist regen queue", err)
	}
	if err := runstore.WriteText(mdPath, RenderMarkdown(report)); err != nil {
		return workflow.EvalOutput{}, services.Wrap(services.ErrExecution, "eval", "write report", "persist eval markdown", err)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "eval_complete"),
		logging.Float64("total_score", total),
		logging.Float64("threshold", threshold),
		logging.Int("regen_queue_length", len(queue)),
	}
	if total < threshold {
		logging.WarnWithContext(e.logger, "run scored below threshold", "eval_below_threshold",
			append(attrs,
				logging.Strings("regen_queue", queue),
				logging.String(logging.FieldImpact, "shots queued for regeneration"),
				logging.String(logging.FieldErrorHint, "regenerate the queued shots"),
			)...)
	} else {
		e.logger.Info("run evaluated", logging.Args(attrs...)...)
	}

	out := workflow.EvalOutput{TotalScore: total, Threshold: threshold, RegenQueue: queue}
	out.AddArtifact(env, "eval_report_json", jsonPath)
	out.AddArtifact(env, "eval_report_md", mdPath)
	out.AddArtifact(env, "regen_queue", queuePath)
	out.SetOutput("eval_report_json", env.Layout.Rel(jsonPath))
	out.SetOutput("eval_report_md", env.Layout.Rel(mdPath))
	return out, nil
}

// RenderMarkdown renders the human-readable eval report.
func RenderMarkdown(r Report) string {
	var b strings.Builder
	b.WriteString("# Eval Report\n\n")
	fmt.Fprintf(&b, "- Total score: %s\n", formatScore(r.TotalScore))
	fmt.Fprintf(&b, "- Threshold: %s\n", formatScore(r.Threshold))
	fmt.Fprintf(&b, "- Regen queue length: %d\n", len(r.RegenQueue))
	if len(r.RegenQueue) > 0 {
		fmt.Fprintf(&b, "- Regen queue: %s\n", strings.Join(r.RegenQueue, ", "))
	}
	b.WriteString("\n| Score | Value |\n|---|---|\n")
	for _, name := range ScoreNames {
		if v, ok := r.Scores[name]; ok {
			fmt.Fprintf(&b, "| %s | %s |\n", name, formatScore(v))
		}
	}
	return b.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
