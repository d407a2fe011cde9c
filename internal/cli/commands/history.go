package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show run history",
		Long: `Show recent runs from the state store.

With a run ID, show that run's task results and collected artifacts
instead.`,
		Example: `  # Show the last 10 runs
  evolab history

  # Show the last 3 runs
  evolab history --limit 3

  # Inspect a single run
  evolab history 2f6c0a1e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			// History reads need the store; bootstrap is idempotent and
			// cheap when the environment already exists.
			if err := cmdCtx.Engine.Bootstrap(); err != nil {
				return fmt.Errorf("environment setup failed: %w", err)
			}

			if len(args) == 1 {
				return showRun(cmd, cmdCtx, args[0])
			}
			return showHistory(cmd, cmdCtx, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")

	return cmd
}

func showHistory(cmd *cobra.Command, cmdCtx *CommandContext, limit int) error {
	runs, err := cmdCtx.Engine.Store().ListRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Run ID", "Environment", "Status", "Started", "Duration", "Error"})
	for _, r := range runs {
		duration := "-"
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{r.ID, r.Environment, r.Status, r.StartedAt.Format(time.RFC3339), duration, r.Error})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	return nil
}

func showRun(cmd *cobra.Command, cmdCtx *CommandContext, runID string) error {
	store := cmdCtx.Engine.Store()
	run, err := store.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s): %s\n", run.ID, run.Environment, run.Status)
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}

	tasks, err := store.GetTaskRunsForRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load task results: %w", err)
	}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Task", "Mode", "Status", "Duration", "Error"})
	for _, tr := range tasks {
		mode := "foreground"
		if tr.Background {
			mode = "background"
		}
		t.AppendRow(table.Row{tr.Task, mode, tr.Status, fmt.Sprintf("%dms", tr.DurationMS), tr.Error})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	artifacts, err := store.GetArtifactsForRun(runID)
	if err != nil {
		return fmt.Errorf("failed to load artifacts: %w", err)
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(out, "No artifacts collected")
		return nil
	}
	at := table.NewWriter()
	at.SetOutputMirror(out)
	at.AppendHeader(table.Row{"Artifact", "Kind", "Size", "Collected"})
	for _, a := range artifacts {
		at.AppendRow(table.Row{a.Name, a.Kind, fmt.Sprintf("%d B", a.SizeBytes), a.CollectedAt.Format(time.RFC3339)})
	}
	at.SetStyle(table.StyleLight)
	at.Render()

	return nil
}
