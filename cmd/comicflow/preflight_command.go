package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"comicflow/internal/logging"
	"comicflow/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check output directories, free space, and stage readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}
			stages, err := ctx.stageSet(logging.NewNop())
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, root, stages.HealthChecks(cmd.Context()))

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			return preflight.Failures(results)
		},
	}
}
