// Package experiment contains the built-in genetic-algorithm studies run by
// the engine: a Rastrigin-style function minimization, its fitness plot, a
// box dimension optimization, and a protein-bar mutation study.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"github.com/apenaflor/evolab/pkg/core"
)

// RunContext carries everything an experiment needs at run time.
type RunContext struct {
	// WorkDir is the scratch directory where artifacts are written.
	WorkDir string
	// Params are the experiment defaults merged with user overrides.
	Params core.Params
	// Rand is the experiment's private randomness source.
	Rand *rand.Rand
	// Report receives the human-readable run report. For foreground tasks
	// the engine points it at the task's log file.
	Report io.Writer
	// Logger is the structured logger.
	Logger *slog.Logger
}

// Experiment is a single runnable GA study.
type Experiment interface {
	// Name is the unique task name, used for log files and selection.
	Name() string
	// Description is a one-line summary for listings.
	Description() string
	// Background reports whether the task runs concurrently with the
	// foreground sequence and is joined at the collection barrier.
	Background() bool
	// DependsOn names the tasks that must complete first.
	DependsOn() []string
	// Defaults returns the experiment's built-in parameters.
	Defaults() core.Params
	// Run executes the study.
	Run(ctx context.Context, rc *RunContext) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Experiment)
)

// Register adds an experiment to the global registry. It panics on a
// duplicate name, which would be a programming error.
func Register(e Experiment) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[e.Name()]; exists {
		panic(fmt.Sprintf("experiment %q registered twice", e.Name()))
	}
	registry[e.Name()] = e
}

// Get returns a registered experiment by name.
func Get(name string) (Experiment, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := registry[name]
	return e, ok
}

// All returns every registered experiment, sorted by name.
func All() []Experiment {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Experiment, 0, len(registry))
	for _, e := range registry {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
