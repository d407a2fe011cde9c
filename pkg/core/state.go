package core

import "time"

// RunStatus represents the lifecycle state of a suite run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TaskStatus represents the lifecycle state of a single experiment task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusFailed  TaskStatus = "failed"
	TaskStatusSkipped TaskStatus = "skipped"
)

// Run records a single invocation of the experiment suite.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// TaskRun records the execution of one experiment within a run.
type TaskRun struct {
	ID         string
	RunID      string
	Task       string
	Background bool
	Status     TaskStatus
	StartedAt  time.Time
	DurationMS int64
	Error      string
}

// Artifact records a file swept into the output directory after a run.
type Artifact struct {
	ID          string
	RunID       string
	Name        string
	Kind        string // log, csv, png
	SizeBytes   int64
	CollectedAt time.Time
}

// Store defines the interface for run-history persistence.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// Run operations
	CreateRun(env string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(env string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Task run operations
	RecordTaskRun(tr *TaskRun) error
	UpdateTaskRun(id string, status TaskStatus, durationMS int64, errMsg string) error
	GetTaskRunsForRun(runID string) ([]*TaskRun, error)

	// Artifact operations
	RecordArtifact(a *Artifact) error
	GetArtifactsForRun(runID string) ([]*Artifact, error)
}
