package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	intconfig "github.com/apenaflor/evolab/internal/config"
	"github.com/apenaflor/evolab/internal/experiment"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new evolab project",
		Long: `Initialize a new evolab project with default directory structure and
configuration.

This creates:
  - workspace/ scratch directory for experiment output
  - results/ directory for collected artifacts
  - evolab.yaml configuration file listing every experiment with its
    default parameters`,
		Example: `  # Initialize in current directory
  evolab init

  # Initialize in a new directory
  evolab init my-experiments

  # Force overwrite existing config
  evolab init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "evolab.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("evolab.yaml already exists. Use --force to overwrite")
	}

	for _, sub := range []string{intconfig.DefaultWorkDir, intconfig.DefaultOutputDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	data, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o640); err != nil {
		return fmt.Errorf("failed to write evolab.yaml: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Created:")
	fmt.Fprintf(out, "  %s/\n", intconfig.DefaultWorkDir)
	fmt.Fprintf(out, "  %s/\n", intconfig.DefaultOutputDir)
	fmt.Fprintln(out, "  evolab.yaml")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "evolab project initialized!")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Adjust experiment parameters in evolab.yaml")
	fmt.Fprintln(out, "  2. Run 'evolab run' to execute the suite")
	fmt.Fprintln(out, "  3. Run 'evolab history' to inspect past runs")

	return nil
}

// defaultConfigYAML renders a starter config listing every registered
// experiment with its default parameters spelled out.
func defaultConfigYAML() ([]byte, error) {
	experiments := map[string]map[string]any{}
	for _, exp := range experiment.All() {
		p := exp.Defaults()
		params := map[string]any{
			"generations": p.Generations,
			"population":  p.Population,
		}
		if p.CrossoverRate > 0 {
			params["crossover_rate"] = p.CrossoverRate
		}
		if p.MutationRate > 0 {
			params["mutation_rate"] = p.MutationRate
		}
		if p.Sigma > 0 {
			params["sigma"] = p.Sigma
		}
		if p.TournamentSize > 0 {
			params["tournament_size"] = p.TournamentSize
		}
		experiments[exp.Name()] = params
	}

	cfg := map[string]any{
		"work_dir":    intconfig.DefaultWorkDir,
		"output_dir":  intconfig.DefaultOutputDir,
		"state_path":  intconfig.DefaultStateFile,
		"environment": intconfig.DefaultEnvironment,
		"seed":        0,
		"experiments": experiments,
	}
	return yaml.Marshal(cfg)
}
