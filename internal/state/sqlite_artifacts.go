package state

import (
	"fmt"
	"time"

	"github.com/apenaflor/evolab/pkg/core"
)

// RecordArtifact inserts a collected-artifact row. An empty ID and
// CollectedAt are filled in.
func (s *SQLiteStore) RecordArtifact(a *core.Artifact) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	if a.ID == "" {
		a.ID = newID()
	}
	if a.CollectedAt.IsZero() {
		a.CollectedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO artifacts (id, run_id, name, kind, size_bytes, collected_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.RunID, a.Name, a.Kind, a.SizeBytes, a.CollectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}
	return nil
}

// GetArtifactsForRun returns the artifacts collected for a run, sorted by
// name.
func (s *SQLiteStore) GetArtifactsForRun(runID string) ([]*core.Artifact, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, name, kind, size_bytes, collected_at
		 FROM artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}
	defer rows.Close()

	var out []*core.Artifact
	for rows.Next() {
		var a core.Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Name, &a.Kind, &a.SizeBytes, &a.CollectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
