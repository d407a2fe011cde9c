// Package engine orchestrates the experiment suite: workspace bootstrap,
// sequential foreground execution with one concurrent background task, and
// artifact collection into the output directory.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apenaflor/evolab/internal/dag"
	"github.com/apenaflor/evolab/internal/experiment"
	"github.com/apenaflor/evolab/internal/state"
	"github.com/apenaflor/evolab/pkg/core"
)

// Config holds engine configuration.
type Config struct {
	// WorkDir is the scratch workspace experiments write into.
	WorkDir string
	// OutputDir receives collected artifacts.
	OutputDir string
	// StatePath is the SQLite run-history database.
	StatePath string
	// Environment tags runs in the state store.
	Environment string
	// Seed makes runs reproducible; 0 derives a seed from the clock.
	Seed int64
	// Params holds per-experiment overrides keyed by task name.
	Params map[string]core.Params
	// Suite overrides the registered experiments; nil uses the built-in
	// registry.
	Suite []experiment.Experiment
	// Logger is the structured logger (optional, discards if nil).
	Logger *slog.Logger
}

// Engine runs the experiment suite.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	suite map[string]experiment.Experiment
	graph *dag.Graph
	store core.Store
}

// New creates an engine. It validates the suite's dependency graph but
// touches neither the filesystem nor the state store; call Bootstrap
// before Run.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if cfg.StatePath == "" {
		return nil, fmt.Errorf("state path is required")
	}

	exps := cfg.Suite
	if exps == nil {
		exps = experiment.All()
	}
	if len(exps) == 0 {
		return nil, fmt.Errorf("no experiments registered")
	}

	suite := make(map[string]experiment.Experiment, len(exps))
	graph := dag.New()
	for _, e := range exps {
		if _, dup := suite[e.Name()]; dup {
			return nil, fmt.Errorf("duplicate experiment %q", e.Name())
		}
		suite[e.Name()] = e
		graph.AddNode(e.Name())
	}
	for _, e := range exps {
		for _, dep := range e.DependsOn() {
			if e.Background() {
				return nil, fmt.Errorf("background task %q cannot declare dependencies", e.Name())
			}
			if d, ok := suite[dep]; !ok {
				return nil, fmt.Errorf("experiment %q depends on unknown task %q", e.Name(), dep)
			} else if d.Background() {
				return nil, fmt.Errorf("experiment %q depends on background task %q", e.Name(), dep)
			}
			if err := graph.AddEdge(dep, e.Name()); err != nil {
				return nil, err
			}
		}
	}
	if _, err := graph.TopoSort(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:    cfg,
		logger: logger,
		suite:  suite,
		graph:  graph,
	}, nil
}

// Bootstrap prepares the execution environment: the scratch workspace and
// the state store. It is idempotent; an existing workspace is reused. Any
// failure here is fatal to the run, and no output directory is created.
func (e *Engine) Bootstrap() error {
	if info, err := os.Stat(e.cfg.WorkDir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("workspace path %s exists and is not a directory", e.cfg.WorkDir)
		}
		e.logger.Info("reusing existing workspace", "work_dir", e.cfg.WorkDir)
	} else {
		if err := os.MkdirAll(e.cfg.WorkDir, 0o750); err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}
		e.logger.Info("created workspace", "work_dir", e.cfg.WorkDir)
	}

	if e.store != nil {
		return nil
	}

	if e.cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(e.cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0o750); err != nil {
				return fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(e.logger)
	if err := store.Open(e.cfg.StatePath); err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to migrate state store: %w", err)
	}
	e.store = store
	return nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// Store exposes the state store for read-side commands. It is nil before
// Bootstrap.
func (e *Engine) Store() core.Store {
	return e.store
}

// Suite returns the experiments in dependency order.
func (e *Engine) Suite() []experiment.Experiment {
	order, _ := e.graph.TopoSort() // validated in New
	out := make([]experiment.Experiment, 0, len(order))
	for _, name := range order {
		out = append(out, e.suite[name])
	}
	return out
}
