package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered model capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registry()
			if err != nil {
				return err
			}
			models := registry.Models()
			if jsonOutput {
				return writeJSON(cmd, models)
			}
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				refs := "-"
				if limit, ok := m.ReferenceLimit(); ok {
					refs = strconv.Itoa(limit)
				}
				rows = append(rows, []string{
					m.ID,
					m.Label,
					yesNo(m.TextToVideo),
					yesNo(m.ImageFirstFrame),
					yesNo(m.ImageFirstAndLast),
					yesNo(m.Audio),
					yesNo(m.Draft),
					refs,
				})
			}
			headers := []string{"Model", "Label", "T2V", "I2V", "Keyframes", "Audio", "Draft", "Max refs"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("", headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
