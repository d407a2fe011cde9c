package commands

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/apenaflor/evolab/internal/cli/config"
	"github.com/apenaflor/evolab/internal/engine"
	"github.com/apenaflor/evolab/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Select string
	Watch  bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment suite",
		Long: `Execute the experiment suite in dependency order.

The workspace is prepared first; an existing workspace is reused. The
background experiment runs alongside the foreground sequence, and all
artifacts (logs, CSV data, charts) are collected into the results
directory once every experiment has finished.

A failing experiment is recorded in the run history but does not abort
the suite or change the exit code; only a workspace or state-store
failure is fatal.`,
		Example: `  # Run the full suite
  evolab run

  # Run selected experiments (dependencies are pulled in automatically)
  evolab run --select rastrigin,fitness-plot

  # Re-run whenever the config file changes
  evolab run --watch

  # Reproducible run
  evolab run --seed 1234`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Select, "select", "s", "", "Comma-separated list of experiments to run")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the suite when the config file changes")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	eng := cmdCtx.Engine

	var selected []string
	if opts.Select != "" {
		for _, name := range strings.Split(opts.Select, ",") {
			selected = append(selected, strings.TrimSpace(name))
		}
	}

	if err := eng.Bootstrap(); err != nil {
		return fmt.Errorf("environment setup failed: %w", err)
	}

	if opts.Watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return eng.Watch(ctx, config.GetConfigFileUsed(), selected)
	}

	startTime := time.Now()
	res, err := eng.Run(cmd.Context(), selected)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printRunResult(cmd, res)
	fmt.Fprintf(cmd.OutOrStdout(), "Completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	// Experiment failures are already reflected in the run history; the
	// command itself still succeeds.
	return nil
}

func printRunResult(cmd *cobra.Command, res *engine.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", res.Run.ID, res.Run.Status)
	if res.Run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", res.Run.Error)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Task", "Mode", "Status", "Duration"})
	for _, tr := range res.Tasks {
		mode := "foreground"
		if tr.Background {
			mode = "background"
		}
		status := string(tr.Status)
		if tr.Error != "" {
			status = fmt.Sprintf("%s (%s)", tr.Status, tr.Error)
		}
		t.AppendRow(table.Row{tr.Task, mode, status, fmt.Sprintf("%dms", tr.DurationMS)})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	success, failed := statusCounts(res.Tasks)
	fmt.Fprintf(out, "%d succeeded, %d failed\n", success, failed)

	if len(res.Artifacts) > 0 {
		fmt.Fprintf(out, "Collected %d artifacts:\n", len(res.Artifacts))
		for _, a := range res.Artifacts {
			fmt.Fprintf(out, "  %s (%s, %d bytes)\n", a.Name, a.Kind, a.SizeBytes)
		}
	} else {
		fmt.Fprintln(out, "No artifacts produced")
	}
}

// statusCounts tallies task outcomes for the summary line.
func statusCounts(tasks []*core.TaskRun) (success, failed int) {
	for _, tr := range tasks {
		switch tr.Status {
		case core.TaskStatusSuccess:
			success++
		case core.TaskStatusFailed:
			failed++
		}
	}
	return success, failed
}
