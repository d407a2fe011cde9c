// Package config provides the shared project configuration types for
// evolab. It is decoupled from CLI concerns so other tools can load a
// project without pulling in cobra.
package config

import (
	"fmt"

	"github.com/apenaflor/evolab/pkg/core"
)

// Config holds the resolved project configuration.
type Config struct {
	// ProjectRoot is the directory all relative paths resolve against.
	ProjectRoot string `koanf:"-"`

	// WorkDir is the scratch workspace where experiments write artifacts.
	WorkDir string `koanf:"work_dir"`
	// OutputDir receives the collected artifacts after a run.
	OutputDir string `koanf:"output_dir"`
	// StatePath is the SQLite run-history database.
	StatePath string `koanf:"state_path"`
	// Environment tags runs in the state store.
	Environment string `koanf:"environment"`
	// Seed makes runs reproducible; 0 derives a seed from the clock.
	Seed int64 `koanf:"seed"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	// Experiments holds per-experiment parameter overrides keyed by task
	// name.
	Experiments map[string]core.Params `koanf:"experiments"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.WorkDir == "" {
		return fmt.Errorf("work_dir is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.WorkDir == c.OutputDir {
		return fmt.Errorf("work_dir and output_dir must differ, both are %s", c.WorkDir)
	}
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	return nil
}

// ParamsFor returns the overrides configured for a task, or the zero
// Params when none are set.
func (c *Config) ParamsFor(task string) core.Params {
	if c.Experiments == nil {
		return core.Params{}
	}
	return c.Experiments[task]
}
