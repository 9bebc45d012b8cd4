package preflight

import (
	"context"
	"fmt"
	"strings"

	"comicflow/internal/config"
	"comicflow/internal/stage"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for cfg. Stage readiness comes from
// the handlers' own health checks.
func RunAll(ctx context.Context, cfg *config.Config, projectRoot string, health []stage.Health) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	outputs := cfg.OutputsRoot(projectRoot)
	results = append(results, CheckWritableTarget("Outputs directory", outputs))
	results = append(results, CheckFreeSpace("Outputs free space", outputs, cfg.Preflight.MinFreeMiB))

	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckWritableTarget("Log directory", cfg.Paths.LogDir))
	}

	for _, h := range health {
		if ctx.Err() != nil {
			break
		}
		results = append(results, fromHealth(h))
	}
	return results
}

// Failures returns an error naming every failed check, or nil.
func Failures(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(failed, "; "))
}

func fromHealth(h stage.Health) Result {
	return Result{Name: "Stage " + h.Name, Passed: h.Ready, Detail: h.Summary()}
}
