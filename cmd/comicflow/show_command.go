package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"comicflow/internal/generation"
	"comicflow/internal/runstore"
	"comicflow/internal/workflow"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show persisted run state, or list runs when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := ctx.projectRoot()
			if err != nil {
				return err
			}
			outputsRoot := cfg.OutputsRoot(root)

			if len(args) == 0 {
				return listRuns(cmd, outputsRoot, jsonOutput)
			}

			layout := runstore.NewLayout(root, outputsRoot, args[0])
			var run workflow.Run
			if err := runstore.ReadJSON(layout.StatePath(), &run); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("no run state for %q under %s", args[0], outputsRoot)
				}
				return fmt.Errorf("read run state: %w", err)
			}
			genLog, logErr := generation.ReadLog(layout.Log(generation.LogFileName))
			hasLog := logErr == nil

			if jsonOutput {
				payload := map[string]any{"state": run}
				if hasLog {
					payload["generation"] = genLog
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			renderRun(out, &run, layout.Rel(layout.StatePath()), colorize)
			if hasLog && len(genLog.Shots) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderGenerationLog(genLog))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func listRuns(cmd *cobra.Command, outputsRoot string, jsonOutput bool) error {
	dirs, err := runstore.ListRunDirs(outputsRoot)
	if err != nil {
		return err
	}
	runs := make([]workflow.RunMeta, 0, len(dirs))
	rows := make([][]string, 0, len(dirs))
	for _, dir := range dirs {
		var run workflow.Run
		if err := runstore.ReadJSON(filepath.Join(dir, runstore.StateFileName), &run); err != nil {
			continue
		}
		runs = append(runs, run.Meta)
		failedAt := ""
		if failed := run.FailedStage(); failed != nil {
			failedAt = string(failed.Name)
		}
		rows = append(rows, []string{
			run.Meta.RunID,
			string(run.Meta.Status),
			formatStamp(run.Meta.StartedAt),
			formatStamp(run.Meta.FinishedAt),
			failedAt,
		})
	}
	if jsonOutput {
		return writeJSON(cmd, runs)
	}
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "No runs found under %s\n", outputsRoot)
		return nil
	}
	fmt.Fprintln(out, renderTable("", []string{"Run", "Status", "Started", "Finished", "Failed stage"}, rows, nil))
	return nil
}

func renderRun(out io.Writer, run *workflow.Run, statePath string, colorize bool) {
	fmt.Fprintf(out, "Run %s\n", run.Meta.RunID)
	fmt.Fprintln(out, renderStatusLine("Status", kindForStatus(run.Meta.Status), string(run.Meta.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("State file", statusInfo, statePath, colorize))
	for _, st := range run.Stages {
		message := string(st.Status)
		if d := stageDuration(st); d != "" {
			message += " in " + d
		}
		if st.Error != nil {
			message = fmt.Sprintf("%s %s: %s (retryable: %s)", message, st.Error.Code, st.Error.Message, yesNo(st.Error.Retryable))
		}
		fmt.Fprintln(out, renderStatusLine(st.Name.Label(), kindForStatus(st.Status), message, colorize))
	}

	rows := make([][]string, 0)
	for _, st := range run.Stages {
		for _, a := range st.Artifacts {
			rows = append(rows, []string{st.Name.Label(), a.Name, a.Path})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable("Artifacts", []string{"Stage", "Name", "Path"}, rows, nil))
	}
}

func renderGenerationLog(log generation.Log) string {
	rows := make([][]string, 0, len(log.Shots))
	for _, e := range log.Shots {
		rows = append(rows, []string{
			e.ShotID,
			string(e.RequestedControlMode),
			string(e.EffectiveControlMode),
			e.ModelID,
			yesNo(e.DraftMode),
			strconv.FormatFloat(e.DurationSec, 'f', -1, 64),
			strings.Join(e.Warnings, "\n"),
		})
	}
	headers := []string{"Shot", "Requested", "Effective", "Model", "Draft", "Duration", "Warnings"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
	return renderTable("Generation", headers, rows, aligns)
}

func formatStamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func stageDuration(st workflow.Stage) string {
	if st.StartedAt == nil || st.FinishedAt == nil {
		return ""
	}
	return st.FinishedAt.Sub(*st.StartedAt).String()
}
