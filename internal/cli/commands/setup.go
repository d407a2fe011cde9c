// Package commands implements the evolab subcommands.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/apenaflor/evolab/internal/cli/config"
	intconfig "github.com/apenaflor/evolab/internal/config"
	"github.com/apenaflor/evolab/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext creates a CommandContext with a configured engine.
// Returns the context and a cleanup function that must be called
// (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := engine.New(engine.Config{
		WorkDir:     cfg.WorkDir,
		OutputDir:   cfg.OutputDir,
		StatePath:   cfg.StatePath,
		Environment: cfg.Environment,
		Seed:        cfg.Seed,
		Params:      cfg.Experiments,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: eng,
	}, cleanup, nil
}

// getConfig returns the current configuration, falling back to defaults
// when no config has been loaded (direct command construction in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg := &config.Config{}
	intconfig.ApplyDefaults(cfg)
	return cfg
}
