package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/apenaflor/evolab/internal/cli/config"
)

func TestNewRunCommand(t *testing.T) {
	cmd := NewRunCommand()

	assert.Equal(t, "run", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"select", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history [run-id]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("limit"), "flag limit should exist")
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "evolab v1.2.3")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()

	cmd := NewInitCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	require.NoError(t, cmd.Execute())

	assert.DirExists(t, filepath.Join(dir, "workspace"))
	assert.DirExists(t, filepath.Join(dir, "results"))
	require.FileExists(t, filepath.Join(dir, "evolab.yaml"))
	assert.Contains(t, buf.String(), "project initialized")

	// The generated config parses and names every experiment.
	data, err := os.ReadFile(filepath.Join(dir, "evolab.yaml"))
	require.NoError(t, err)
	var cfg struct {
		WorkDir     string                    `yaml:"work_dir"`
		Experiments map[string]map[string]any `yaml:"experiments"`
	}
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "workspace", cfg.WorkDir)
	for _, name := range []string{"rastrigin", "fitness-plot", "box-design", "protein-bar"} {
		assert.Contains(t, cfg.Experiments, name)
	}

	// A second init refuses to clobber the config without --force.
	again := NewInitCommand()
	again.SetOut(new(bytes.Buffer))
	again.SetErr(new(bytes.Buffer))
	require.ErrorContains(t, again.Execute(), "already exists")

	forced := NewInitCommand()
	forced.SetOut(new(bytes.Buffer))
	forced.SetErr(new(bytes.Buffer))
	forced.SetArgs([]string{"--force"})
	require.NoError(t, forced.Execute())
}

func TestListCommandOutput(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := NewListCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Experiments (4 total)")
	for _, name := range []string{"rastrigin", "fitness-plot", "box-design", "protein-bar"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "background")
}

func TestRunCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()

	// Small populations keep the suite quick; the config file also
	// exercises the loader path the real binary takes.
	cfgYAML := `work_dir: workspace
output_dir: results
state_path: .evolab/state.db
seed: 7
experiments:
  rastrigin:
    generations: 5
    population: 10
  box-design:
    generations: 3
    population: 10
  protein-bar:
    generations: 3
    population: 20
`
	require.NoError(t, os.WriteFile("evolab.yaml", []byte(cfgYAML), 0o644))
	_, err := config.LoadConfig("evolab.yaml", nil)
	require.NoError(t, err)
	defer config.ResetConfig()

	cmd := NewRunCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "Run ")
	assert.Contains(t, out, "4 succeeded, 0 failed")
	assert.Contains(t, out, "Completed in")
	assert.FileExists(t, filepath.Join(dir, "results", "rastrigin_history.csv"))
	assert.FileExists(t, filepath.Join(dir, "results", "rastrigin_fitness.png"))

	// The run is now visible in history.
	hist := NewHistoryCommand()
	hbuf := new(bytes.Buffer)
	hist.SetOut(hbuf)
	hist.SetErr(hbuf)
	require.NoError(t, hist.Execute())
	assert.Contains(t, hbuf.String(), "completed")

	// Selection narrows the suite to the task and its dependencies.
	sel := NewRunCommand()
	sbuf := new(bytes.Buffer)
	sel.SetOut(sbuf)
	sel.SetErr(sbuf)
	sel.SetArgs([]string{"--select", "fitness-plot"})
	require.NoError(t, sel.Execute())
	selOut := sbuf.String()
	assert.Contains(t, selOut, "rastrigin")
	assert.NotContains(t, selOut, "box-design")
}

func TestHistoryCommandEmpty(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := NewHistoryCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, strings.TrimSpace(buf.String()), "No runs recorded yet")
}
