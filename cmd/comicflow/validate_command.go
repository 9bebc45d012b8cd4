package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"comicflow/internal/resolver"
	"comicflow/internal/timeline"
	"comicflow/internal/workflow"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var workflowPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a workflow descriptor and its timeline without running it",
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
			source, err := ctx.resolvePath(run.Config.Plan.TimelineSource)
			if err != nil {
				return err
			}
			tl, err := timeline.Load(source)
			if err != nil {
				return err
			}
			if err := timeline.Validate(tl); err != nil {
				return fmt.Errorf("timeline %s: %w", run.Config.Plan.TimelineSource, err)
			}
			registry, err := ctx.registry()
			if err != nil {
				return err
			}

			defaults := resolver.Defaults{
				ModelID:      run.Config.Generate.ModelID,
				DraftMode:    run.Config.Generate.Draft(),
				FallbackMode: run.Config.Generate.FallbackMode,
			}
			rows := make([][]string, 0, len(tl.Shots))
			for _, shot := range tl.Shots {
				res, err := resolver.Resolve(registry, shot, defaults)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					res.Shot.ShotID,
					string(res.RequestedMode),
					string(res.EffectiveMode),
					res.ModelID,
					yesNo(res.DraftMode),
					strings.Join(res.Warnings, "\n"),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workflow valid: run %s, %d shots from %s\n", run.Meta.RunID, len(tl.Shots), run.Config.Plan.TimelineSource)
			fmt.Fprintln(out, renderTable("Planned resolution",
				[]string{"Shot", "Requested", "Effective", "Model", "Draft", "Warnings"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflowPath, "workflow", "w", defaultWorkflowPath, "Workflow descriptor, relative to the project root")
	return cmd
}
