package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/apenaflor/evolab/pkg/core"
)

// RecordTaskRun inserts a task run row. An empty ID and StartedAt are
// filled in.
func (s *SQLiteStore) RecordTaskRun(tr *core.TaskRun) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	if tr.ID == "" {
		tr.ID = newID()
	}
	if tr.StartedAt.IsZero() {
		tr.StartedAt = time.Now().UTC()
	}
	if tr.Status == "" {
		tr.Status = core.TaskStatusPending
	}

	_, err := s.db.Exec(
		`INSERT INTO task_runs (id, run_id, task, background, status, started_at, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.RunID, tr.Task, boolToInt(tr.Background), tr.Status, tr.StartedAt,
		tr.DurationMS, nullable(tr.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record task run: %w", err)
	}
	return nil
}

// UpdateTaskRun updates the status, duration, and error of a task run.
func (s *SQLiteStore) UpdateTaskRun(id string, status core.TaskStatus, durationMS int64, errMsg string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	res, err := s.db.Exec(
		`UPDATE task_runs SET status = ?, duration_ms = ?, error = ? WHERE id = ?`,
		status, durationMS, nullable(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update task run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task run %s not found", id)
	}
	return nil
}

// GetTaskRunsForRun returns all task runs of a run in start order.
func (s *SQLiteStore) GetTaskRunsForRun(runID string) ([]*core.TaskRun, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, task, background, status, started_at, duration_ms, error
		 FROM task_runs WHERE run_id = ? ORDER BY started_at, task`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task runs: %w", err)
	}
	defer rows.Close()

	var out []*core.TaskRun
	for rows.Next() {
		var tr core.TaskRun
		var background int
		var errMsg sql.NullString
		if err := rows.Scan(&tr.ID, &tr.RunID, &tr.Task, &background, &tr.Status,
			&tr.StartedAt, &tr.DurationMS, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan task run: %w", err)
		}
		tr.Background = background != 0
		if errMsg.Valid {
			tr.Error = errMsg.String
		}
		out = append(out, &tr)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
