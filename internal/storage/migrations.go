package storage

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	SQL         string
	Description string
	Version     int
}

// migrator handles database schema migrations
type migrator struct {
	db *sql.DB
}

func newMigrator(db *sql.DB) *migrator {
	return &migrator{db: db}
}

// currentVersion returns the highest applied schema version, creating
// the schema_version table on first use.
func (m *migrator) currentVersion() (int, error) {
	createVersionTable := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := m.db.Exec(createVersionTable); err != nil {
		return 0, fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}

	return version, nil
}

// applyMigration applies a single migration inside a transaction
func (m *migrator) applyMigration(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %d (%s): %w",
			migration.Version, migration.Description, err)
	}

	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}

	return nil
}

// run applies all pending migrations in version order
func (m *migrator) run() error {
	currentVersion, err := m.currentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range getMigrations() {
		if migration.Version > currentVersion {
			if err := m.applyMigration(migration); err != nil {
				return fmt.Errorf("failed to apply migration: %w", err)
			}
		}
	}

	return nil
}

// getMigrations returns all available migrations in order
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Initial schema creation",
			SQL: `
				-- Check-run outcome history. Artifact signatures are
				-- deliberately absent from this schema.
				CREATE TABLE IF NOT EXISTS check_runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					started_at DATETIME NOT NULL,
					duration_ms INTEGER NOT NULL DEFAULT 0,
					mode TEXT NOT NULL,
					status TEXT NOT NULL,
					changed_paths TEXT,
					changed_count INTEGER NOT NULL DEFAULT 0,
					verify_passed BOOLEAN NOT NULL DEFAULT TRUE,
					error_message TEXT
				);

				-- Indexes for the history list and prune paths
				CREATE INDEX IF NOT EXISTS idx_check_runs_started_at ON check_runs(started_at);
				CREATE INDEX IF NOT EXISTS idx_check_runs_status ON check_runs(status);
				CREATE INDEX IF NOT EXISTS idx_check_runs_mode ON check_runs(mode);
			`,
		},
		// Future migrations can be added here
	}
}
