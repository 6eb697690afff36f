package store

import (
	"fmt"
)

// migrate runs all pending migrations
func (s *Store) migrate() error {
	// Create migrations table if it doesn't exist
	createMigrationsTableSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := s.db.Exec(createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get the current schema version
	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	s.logger.Debug("current schema version", "version", currentVersion)

	// Define all migrations
	migrations := []struct {
		version int
		sql     string
	}{
		{
			version: 1,
			sql: `
				CREATE TABLE sync_runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL UNIQUE,
					start_time DATETIME NOT NULL,
					end_time DATETIME,
					files_processed INTEGER DEFAULT 0,
					files_fetched INTEGER DEFAULT 0,
					files_up_to_date INTEGER DEFAULT 0,
					files_skipped INTEGER DEFAULT 0,
					files_failed INTEGER DEFAULT 0,
					status TEXT DEFAULT 'running',
					error_message TEXT
				);

				CREATE TABLE file_records (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category TEXT NOT NULL,
					file_name TEXT NOT NULL,
					target TEXT NOT NULL,
					md5 TEXT,
					size INTEGER DEFAULT 0,
					outcome TEXT NOT NULL,
					error TEXT,
					last_synced DATETIME NOT NULL,
					sync_run_id INTEGER,
					UNIQUE(category, file_name),
					FOREIGN KEY(sync_run_id) REFERENCES sync_runs(id)
				);
			`,
		},
	}

	// Run pending migrations
	for _, mig := range migrations {
		if mig.version > currentVersion {
			s.logger.Info("running migration", "version", mig.version)

			if err := s.runMigration(mig.version, mig.sql); err != nil {
				return fmt.Errorf("failed to run migration %d: %w", mig.version, err)
			}

			s.logger.Info("migration completed", "version", mig.version)
		}
	}

	return nil
}

// runMigration executes a migration and records it
func (s *Store) runMigration(version int, sql string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Execute the migration SQL
	if _, err := tx.Exec(sql); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	// Record the migration
	insertSQL := "INSERT INTO migrations (version) VALUES (?)"
	if _, err := tx.Exec(insertSQL, version); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	return nil
}
