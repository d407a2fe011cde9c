package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the experiments in the suite",
		Long: `List every experiment with its execution mode, dependencies and default
parameters, in the order the suite runs them.`,
		Example: `  # List all experiments
  evolab list`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	suite := cmdCtx.Engine.Suite()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Experiments (%d total)\n", len(suite))

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"#", "Experiment", "Mode", "Depends on", "Defaults", "Description"})
	for i, exp := range suite {
		mode := "foreground"
		if exp.Background() {
			mode = "background"
		}
		deps := strings.Join(exp.DependsOn(), ", ")
		if deps == "" {
			deps = "-"
		}
		p := exp.Defaults()
		defaults := fmt.Sprintf("gens=%d pop=%d", p.Generations, p.Population)
		t.AppendRow(table.Row{i + 1, exp.Name(), mode, deps, defaults, exp.Description()})
	}
	t.SetStyle(table.StyleLight)
	t.Render()

	return nil
}
