package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"comicflow/internal/preflight"
	"comicflow/internal/workflow"
)

const defaultWorkflowPath = "workflows/workflow.v1.template.json"

func newRunCommand(ctx *commandContext) *cobra.Command {
	var workflowPath string
	var runID string
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a workflow descriptor through all four stages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			descriptor, err := ctx.resolvePath(workflowPath)
			if err != nil {
				return err
			}
			run, err := workflow.LoadDescriptor(descriptor, cfg)
			if err != nil {
				return err
			}
			if id := strings.TrimSpace(runID); id != "" {
				if err := workflow.ValidateRunID(id); err != nil {
					return err
				}
				run.Meta.RunID = id
			}

			logger, logFile, err := ctx.logger()
			if err != nil {
				return err
			}
			defer logFile.Close()
			stages, err := ctx.stageSet(logger)
			if err != nil {
				return err
			}
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Preflight.Enabled && !skipPreflight {
				results := preflight.RunAll(sigCtx, cfg, root, stages.HealthChecks(sigCtx))
				if err := preflight.Failures(results); err != nil {
					return err
				}
			}

			mgr, err := workflow.NewManager(cfg, root, stages, logger)
			if err != nil {
				return err
			}
			run, err = mgr.Execute(sigCtx, run)
			statePath := mgr.Layout(run.Meta.RunID).StatePath()
			out := cmd.OutOrStdout()
			if err != nil {
				if failed := run.FailedStage(); failed != nil && failed.Error != nil {
					fmt.Fprintf(out, "Workflow failed at %s (%s). State written to: %s\n",
						failed.Name, failed.Error.Code, statePath)
				}
				return err
			}
			fmt.Fprintf(out, "Workflow completed. State written to: %s\n", statePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflowPath, "workflow", "w", defaultWorkflowPath, "Workflow descriptor (JSON, or YAML by extension), relative to the project root")
	cmd.Flags().StringVar(&runID, "run-id", "", "Override the descriptor's run id")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip preflight checks even when enabled in config")
	return cmd
}
