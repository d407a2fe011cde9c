package state

import (
	"testing"

	"github.com/apenaflor/evolab/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"runs", "task_runs", "artifacts"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
			continue
		}
		rows.Close()
	}
}

func TestSQLiteStore_MigrateTwice(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate should be a no-op, got: %v", err)
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("local")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if run.ID == "" {
		t.Error("expected run ID to be set")
	}
	if run.Status != core.RunStatusRunning {
		t.Errorf("expected status running, got %s", run.Status)
	}

	if err := store.CompleteRun(run.ID, core.RunStatusCompleted, ""); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != core.RunStatusCompleted {
		t.Errorf("expected status completed, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if got.Error != "" {
		t.Errorf("expected no error message, got %q", got.Error)
	}
}

func TestSQLiteStore_CompleteRun_WithError(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("local")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if err := store.CompleteRun(run.ID, core.RunStatusFailed, "2 task(s) failed"); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Status != core.RunStatusFailed {
		t.Errorf("expected status failed, got %s", got.Status)
	}
	if got.Error != "2 task(s) failed" {
		t.Errorf("unexpected error message: %q", got.Error)
	}
}

func TestSQLiteStore_CompleteRun_Unknown(t *testing.T) {
	store := setupTestStore(t)
	if err := store.CompleteRun("no-such-run", core.RunStatusCompleted, ""); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestSQLiteStore_GetLatestRun(t *testing.T) {
	store := setupTestStore(t)

	latest, err := store.GetLatestRun("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Error("expected nil for environment with no runs")
	}

	if _, err := store.CreateRun("other"); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	second, err := store.CreateRun("local")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	latest, err = store.GetLatestRun("local")
	if err != nil {
		t.Fatalf("failed to get latest run: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("expected latest run %s, got %+v", second.ID, latest)
	}
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.CreateRun("local"); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
	}

	runs, err := store.ListRuns(3)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}

	all, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("failed to list all runs: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 runs, got %d", len(all))
	}
}

func TestSQLiteStore_TaskRuns(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("local")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	tr := &core.TaskRun{
		RunID:      run.ID,
		Task:       "protein-bar",
		Background: true,
		Status:     core.TaskStatusRunning,
	}
	if err := store.RecordTaskRun(tr); err != nil {
		t.Fatalf("failed to record task run: %v", err)
	}
	if tr.ID == "" {
		t.Fatal("expected task run ID to be set")
	}

	if err := store.UpdateTaskRun(tr.ID, core.TaskStatusSuccess, 1234, ""); err != nil {
		t.Fatalf("failed to update task run: %v", err)
	}

	got, err := store.GetTaskRunsForRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get task runs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 task run, got %d", len(got))
	}
	if got[0].Status != core.TaskStatusSuccess {
		t.Errorf("expected success, got %s", got[0].Status)
	}
	if got[0].DurationMS != 1234 {
		t.Errorf("expected duration 1234ms, got %d", got[0].DurationMS)
	}
	if !got[0].Background {
		t.Error("expected background flag to round-trip")
	}
}

func TestSQLiteStore_UpdateTaskRun_Unknown(t *testing.T) {
	store := setupTestStore(t)
	if err := store.UpdateTaskRun("no-such-task", core.TaskStatusFailed, 0, "boom"); err == nil {
		t.Error("expected error for unknown task run")
	}
}

func TestSQLiteStore_Artifacts(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("local")
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	artifacts := []*core.Artifact{
		{RunID: run.ID, Name: "rastrigin_history.csv", Kind: "csv", SizeBytes: 4096},
		{RunID: run.ID, Name: "rastrigin_fitness.png", Kind: "png", SizeBytes: 81920},
		{RunID: run.ID, Name: "rastrigin.log", Kind: "log", SizeBytes: 2048},
	}
	for _, a := range artifacts {
		if err := store.RecordArtifact(a); err != nil {
			t.Fatalf("failed to record artifact %s: %v", a.Name, err)
		}
	}

	got, err := store.GetArtifactsForRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get artifacts: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(got))
	}
	// Sorted by name.
	if got[0].Name != "rastrigin.log" || got[2].Name != "rastrigin_history.csv" {
		t.Errorf("unexpected artifact order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
	}
	if got[1].Kind != "png" {
		t.Errorf("expected png kind, got %s", got[1].Kind)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	if _, err := store.CreateRun("local"); err == nil {
		t.Error("expected error when store is not opened")
	}
	if err := store.Migrate(); err == nil {
		t.Error("expected error when store is not opened")
	}
}
