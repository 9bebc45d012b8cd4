package main

import "github.com/spf13/cobra"

func newRootCommand() *cobra.Command {
	var configPath, projectRoot string
	ctx := newCommandContext(&configPath, &projectRoot)

	root := &cobra.Command{
		Use:           "comicflow",
		Short:         "Plan, generate, assemble, and evaluate comic video workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Commands annotated skipConfigLoad (config init) run without a config.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Configuration file path")
	flags.StringVarP(&projectRoot, "project-root", "C", "", "Project root for workflow inputs and outputs (default: working directory)")

	root.AddCommand(
		newRunCommand(ctx),
		newValidateCommand(ctx),
		newShowCommand(ctx),
		newModelsCommand(ctx),
		newPreflightCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
