package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	storage := &SQLiteStorage{db: db}

	if err := newMigrator(db).run(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

// SaveCheckRun records the outcome of a single check. The run's ID is
// populated on success.
func (s *SQLiteStorage) SaveCheckRun(run *CheckRun) error {
	if run == nil {
		return fmt.Errorf("check run cannot be nil")
	}

	query := `
		INSERT INTO check_runs (started_at, duration_ms, mode, status,
			changed_paths, changed_count, verify_passed, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	pathsJSON, err := json.Marshal(run.ChangedPaths)
	if err != nil {
		return fmt.Errorf("failed to marshal changed paths: %w", err)
	}

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	result, err := s.db.Exec(query, run.StartedAt, run.DurationMs, run.Mode,
		run.Status, string(pathsJSON), run.ChangedCount, run.VerifyPassed, run.Error)
	if err != nil {
		return fmt.Errorf("failed to save check run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get check run ID: %w", err)
	}
	run.ID = id

	return nil
}

// GetCheckRuns retrieves check runs matching the filters, most recent
// first.
func (s *SQLiteStorage) GetCheckRuns(filters CheckRunFilters) ([]*CheckRun, error) {
	query := `
		SELECT id, started_at, duration_ms, mode, status,
			changed_paths, changed_count, verify_passed, error_message
		FROM check_runs
		WHERE 1=1
	`

	var args []interface{}

	if filters.Mode != "" {
		query += " AND mode = ?"
		args = append(args, filters.Mode)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if !filters.StartTime.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filters.StartTime)
	}

	if !filters.EndTime.IsZero() {
		query += " AND started_at <= ?"
		args = append(args, filters.EndTime)
	}

	query += " ORDER BY started_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get check runs: %w", err)
	}
	defer rows.Close()

	var runs []*CheckRun
	for rows.Next() {
		var run CheckRun
		var pathsJSON, errorMessage sql.NullString

		err := rows.Scan(
			&run.ID, &run.StartedAt, &run.DurationMs, &run.Mode, &run.Status,
			&pathsJSON, &run.ChangedCount, &run.VerifyPassed, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check run: %w", err)
		}

		if pathsJSON.Valid && pathsJSON.String != "" {
			if err := json.Unmarshal([]byte(pathsJSON.String), &run.ChangedPaths); err != nil {
				return nil, fmt.Errorf("failed to unmarshal changed paths: %w", err)
			}
		}

		if errorMessage.Valid {
			run.Error = errorMessage.String
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check runs: %w", err)
	}

	return runs, nil
}

// PruneCheckRuns removes check runs that started before the given time
// and reports how many were deleted.
func (s *SQLiteStorage) PruneCheckRuns(olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM check_runs WHERE started_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune check runs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// Health verifies the database is reachable and passes SQLite's own
// integrity check.
func (s *SQLiteStorage) Health() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	var integrityCheck string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&integrityCheck); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if integrityCheck != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrityCheck)
	}

	return nil
}

// Close closes the underlying database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
