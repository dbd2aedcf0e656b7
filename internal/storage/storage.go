// Package storage persists check-run outcomes for the history command.
// Only outcomes are stored: artifact signatures are discarded at the end
// of every check and never written anywhere.
package storage

import (
	"time"
)

// Run modes recorded in history.
const (
	ModeCheck      = "check"
	ModeRegenerate = "regenerate"
	ModeWatch      = "watch"
)

// Run statuses recorded in history.
const (
	StatusClean = "clean"
	StatusDrift = "drift"
	StatusError = "error"
)

// Storage defines the interface for check-run persistence
type Storage interface {
	SaveCheckRun(run *CheckRun) error
	GetCheckRuns(filters CheckRunFilters) ([]*CheckRun, error)
	PruneCheckRuns(olderThan time.Time) (int64, error)

	Health() error
	Close() error
}

// CheckRun represents the outcome of a single drift check or
// regeneration. ChangedPaths preserves the tracked-artifact declaration
// order of the run that produced it.
type CheckRun struct {
	StartedAt    time.Time `json:"started_at"`
	Mode         string    `json:"mode"`
	Status       string    `json:"status"`
	ChangedPaths []string  `json:"changed_paths,omitempty"`
	Error        string    `json:"error,omitempty"`
	ID           int64     `json:"id"`
	DurationMs   int64     `json:"duration_ms"`
	ChangedCount int       `json:"changed_count"`
	VerifyPassed bool      `json:"verify_passed"`
}

// CheckRunFilters represents filters for querying check runs
type CheckRunFilters struct {
	Mode      string
	Status    string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// NewStorage creates a new SQLite storage instance
// This is a convenience function that wraps NewSQLiteStorage
func NewStorage(dbPath string) (Storage, error) {
	return NewSQLiteStorage(dbPath)
}
