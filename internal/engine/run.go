package engine

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/apenaflor/evolab/internal/experiment"
	"github.com/apenaflor/evolab/pkg/core"
)

// Result summarizes a finished run.
type Result struct {
	Run       *core.Run
	Tasks     []*core.TaskRun
	Artifacts []core.Artifact
	// Failed lists the names of tasks that returned an error. Task
	// failures mark the run as failed in the state store but are not
	// surfaced as an error from Run.
	Failed []string
}

// Run executes the full suite: the background task is launched first, the
// foreground tasks run one after another in dependency order, and both
// strands join at a single barrier before artifacts are collected. Only
// infrastructure failures (state store, un-bootstrapped engine) produce an
// error; individual task failures are recorded and reported in the Result.
func (e *Engine) Run(ctx context.Context, selected []string) (*Result, error) {
	if e.store == nil {
		return nil, fmt.Errorf("engine is not bootstrapped")
	}

	order, err := e.graph.TopoSort()
	if err != nil {
		return nil, err
	}
	order, err = e.filterSelection(order, selected)
	if err != nil {
		return nil, err
	}

	run, err := e.store.CreateRun(e.cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	baseSeed := e.cfg.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}
	e.logger.Info("starting run",
		"run_id", run.ID,
		"environment", e.cfg.Environment,
		"tasks", len(order),
		"seed", baseSeed)

	var (
		mu     sync.Mutex
		failed []string
		tasks  []*core.TaskRun
	)
	finish := func(tr *core.TaskRun, taskErr error) {
		mu.Lock()
		defer mu.Unlock()
		tasks = append(tasks, tr)
		if taskErr != nil {
			failed = append(failed, tr.Task)
		}
	}

	// The background task starts before the foreground sequence and runs
	// alongside it. Its result is observed at the join barrier below.
	g := new(errgroup.Group)
	for i, name := range order {
		exp := e.suite[name]
		if !exp.Background() {
			continue
		}
		seed := baseSeed + int64(i)
		g.Go(func() error {
			tr, taskErr := e.runTask(ctx, exp, run.ID, seed)
			finish(tr, taskErr)
			// Failures are recorded, never propagated: the barrier
			// must wait for every strand regardless.
			return nil
		})
	}

	for i, name := range order {
		exp := e.suite[name]
		if exp.Background() {
			continue
		}
		tr, taskErr := e.runTask(ctx, exp, run.ID, baseSeed+int64(i))
		finish(tr, taskErr)
	}

	// Join barrier: collection must not begin until the background task
	// has finished, whatever happened on the foreground side.
	_ = g.Wait()

	artifacts := e.collect(run.ID)

	status := core.RunStatusCompleted
	var runErr string
	if len(failed) > 0 {
		sort.Strings(failed)
		status = core.RunStatusFailed
		runErr = fmt.Sprintf("%d task(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	if err := e.store.CompleteRun(run.ID, status, runErr); err != nil {
		return nil, fmt.Errorf("failed to finalize run: %w", err)
	}
	run, err = e.store.GetRun(run.ID)
	if err != nil {
		return nil, err
	}

	e.logger.Info("run finished",
		"run_id", run.ID,
		"status", run.Status,
		"artifacts", len(artifacts),
		"failed_tasks", len(failed))

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Task < tasks[j].Task })
	return &Result{Run: run, Tasks: tasks, Artifacts: artifacts, Failed: failed}, nil
}

// filterSelection narrows the topological order to the selected tasks plus
// their transitive dependencies. An empty selection keeps the full suite.
func (e *Engine) filterSelection(order, selected []string) ([]string, error) {
	if len(selected) == 0 {
		return order, nil
	}
	keep := make(map[string]bool)
	var mark func(name string) error
	mark = func(name string) error {
		if _, ok := e.suite[name]; !ok {
			return fmt.Errorf("unknown task %q", name)
		}
		if keep[name] {
			return nil
		}
		keep[name] = true
		for _, dep := range e.suite[name].DependsOn() {
			if err := mark(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range selected {
		if err := mark(name); err != nil {
			return nil, err
		}
	}
	out := make([]string, 0, len(keep))
	for _, name := range order {
		if keep[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// runTask executes a single experiment and records its task row. Foreground
// tasks stream their report into <name>.log in the workspace; the
// background task reports through the logger only.
func (e *Engine) runTask(ctx context.Context, exp experiment.Experiment, runID string, seed int64) (*core.TaskRun, error) {
	tr := &core.TaskRun{
		RunID:      runID,
		Task:       exp.Name(),
		Background: exp.Background(),
		Status:     core.TaskStatusRunning,
	}
	if err := e.store.RecordTaskRun(tr); err != nil {
		e.logger.Warn("failed to record task start", "task", exp.Name(), "error", err)
	}
	e.logger.Info("task started", "task", exp.Name(), "background", exp.Background())

	start := time.Now()
	taskErr := e.executeTask(ctx, exp, seed)
	tr.DurationMS = time.Since(start).Milliseconds()

	if taskErr != nil {
		tr.Status = core.TaskStatusFailed
		tr.Error = taskErr.Error()
		e.logger.Error("task failed", "task", exp.Name(), "error", taskErr)
	} else {
		tr.Status = core.TaskStatusSuccess
		e.logger.Info("task finished", "task", exp.Name(), "duration_ms", tr.DurationMS)
	}
	if err := e.store.UpdateTaskRun(tr.ID, tr.Status, tr.DurationMS, tr.Error); err != nil {
		e.logger.Warn("failed to record task result", "task", exp.Name(), "error", err)
	}
	return tr, taskErr
}

func (e *Engine) executeTask(ctx context.Context, exp experiment.Experiment, seed int64) error {
	var report io.Writer = io.Discard
	if !exp.Background() {
		logPath := filepath.Join(e.cfg.WorkDir, exp.Name()+".log")
		f, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("failed to create task log: %w", err)
		}
		defer f.Close()
		report = f
	}

	rc := &experiment.RunContext{
		WorkDir: e.cfg.WorkDir,
		Params:  e.cfg.Params[exp.Name()],
		Rand:    rand.New(rand.NewSource(seed)),
		Report:  report,
		Logger:  e.logger.With("task", exp.Name()),
	}
	return exp.Run(ctx, rc)
}
