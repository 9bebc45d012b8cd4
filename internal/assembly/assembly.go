// Package assembly implements the assemble stage, composing the ordered shot
// artifacts into the run's final artifact.
package assembly

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
	"comicflow/internal/workflow"
)

// Assembler is the assemble stage handler.
type Assembler struct {
	logger *slog.Logger
}

// NewAssembler constructs the handler.
func NewAssembler(logger *slog.Logger) *Assembler {
	a := &Assembler{}
	a.SetLogger(logger)
	return a
}

// SetLogger replaces the handler logger.
func (a *Assembler) SetLogger(logger *slog.Logger) {
	a.logger = logging.NewComponentLogger(logger, "assembler")
}

// Assemble writes the composed artifact listing shots in order, plus an
// assembly log.
func (a *Assembler) Assemble(ctx context.Context, env stage.Env, shotPaths []string, cfg workflow.AssembleConfig) (workflow.AssembleOutput, error) {
	if len(shotPaths) == 0 {
		return workflow.AssembleOutput{}, services.Wrap(services.ErrExecution, "assemble", "compose", "no shot artifacts to assemble", nil)
	}
	if err := ctx.Err(); err != nil {
		return workflow.AssembleOutput{}, err
	}
	name := strings.TrimSpace(cfg.OutputName)
	if name == "" {
		name = workflow.DefaultOutputName
	}
	if name != filepath.Base(name) {
		return workflow.AssembleOutput{}, services.Wrap(services.ErrConfiguration, "assemble", "compose",
			fmt.Sprintf("output_name %q must be a bare file name", name), nil)
	}

	order := make([]string, len(shotPaths))
	for i, p := range shotPaths {
		order[i] = filepath.Base(p)
	}

	finalPath := filepath.Join(env.Layout.AssemblyDir(), name)
	body := "MOCK_FINAL_VIDEO\n" + strings.Join(order, "\n") + "\n"
	if err := runstore.WriteText(finalPath, body); err != nil {
		return workflow.AssembleOutput{}, services.Wrap(services.ErrExecution, "assemble", "compose", "write final artifact", err)
	}

	logPath := env.Layout.Log("assembly.log")
	var b strings.Builder
	b.WriteString("Assembly completed\n")
	fmt.Fprintf(&b, "At: %s\n", env.Timestamp())
	fmt.Fprintf(&b, "Shot count: %d\n", len(shotPaths))
	fmt.Fprintf(&b, "Order: %s\n", strings.Join(order, ", "))
	if err := runstore.WriteText(logPath, b.String()); err != nil {
		return workflow.AssembleOutput{}, services.Wrap(services.ErrExecution, "assemble", "compose", "write assembly log", err)
	}

	a.logger.Info(
		"final artifact assembled",
		logging.String(logging.FieldEventType, "assembly_complete"),
		logging.Int("shot_count", len(shotPaths)),
		logging.String("output", env.Layout.Rel(finalPath)),
	)

	out := workflow.AssembleOutput{FinalPath: finalPath}
	out.AddArtifact(env, "final_video", finalPath)
	out.AddArtifact(env, "assembly_log", logPath)
	out.SetOutput("final_video", env.Layout.Rel(finalPath))
	return out, nil
}

