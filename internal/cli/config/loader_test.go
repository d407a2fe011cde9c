package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	intconfig "github.com/apenaflor/evolab/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	require.Equal(t, filepath.Base(cfg.WorkDir), intconfig.DefaultWorkDir)
	require.Equal(t, filepath.Base(cfg.OutputDir), intconfig.DefaultOutputDir)
	require.Equal(t, intconfig.DefaultEnvironment, cfg.Environment)
	require.False(t, cfg.Verbose)
	require.Zero(t, cfg.Seed)
	require.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_FromFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "evolab.yaml")
	yaml := `
work_dir: scratch
output_dir: out
environment: ci
seed: 99
experiments:
  rastrigin:
    generations: 250
    population: 60
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "scratch"), cfg.WorkDir)
	require.Equal(t, filepath.Join(dir, "out"), cfg.OutputDir)
	require.Equal(t, "ci", cfg.Environment)
	require.EqualValues(t, 99, cfg.Seed)
	require.Equal(t, cfgPath, GetConfigFileUsed())

	p := cfg.ParamsFor("rastrigin")
	require.Equal(t, 250, p.Generations)
	require.Equal(t, 60, p.Population)
	require.Zero(t, cfg.ParamsFor("box-design").Generations)
}

func TestLoadConfig_DiscoversFileUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "evolab.yml"), []byte("environment: found\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	require.Equal(t, "found", cfg.Environment)

	// Paths anchor at the directory holding the config file.
	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	resolvedWork, err := filepath.EvalSymlinks(filepath.Dir(cfg.WorkDir))
	require.NoError(t, err)
	require.Equal(t, resolvedRoot, resolvedWork)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "evolab.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("environment: from-file\n"), 0o644))
	t.Setenv("EVOLAB_ENVIRONMENT", "from-env")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Environment)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("EVOLAB_ENVIRONMENT", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("environment", "", "")
	flags.String("state", "", "")
	require.NoError(t, flags.Parse([]string{"--environment=from-flag", "--state=custom.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.Environment)
	require.Equal(t, "custom.db", filepath.Base(cfg.StatePath))
}

func TestLoadConfig_UnsetFlagsAreIgnored(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("environment", "flag-default", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	require.Equal(t, intconfig.DefaultEnvironment, cfg.Environment)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	ResetConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoadConfig_RejectsEqualDirs(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "evolab.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("work_dir: same\noutput_dir: same\n"), 0o644))

	_, err := LoadConfig(cfgPath, nil)
	require.Error(t, err)
}
