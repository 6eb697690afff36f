// Package store persists sync history in SQLite: one row per sync run plus
// the last known state of every mirrored catalog file.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new Store, opening the SQLite database and running migrations
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	// Run migrations
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("store initialized", "path", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// ============================================================================
// SyncRun Operations
// ============================================================================

// CreateSyncRun inserts a new SyncRun and sets its ID
func (s *Store) CreateSyncRun(run *SyncRun) error {
	const query = `
		INSERT INTO sync_runs (
			run_id, start_time, end_time, files_processed, files_fetched,
			files_up_to_date, files_skipped, files_failed, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		run.RunID, run.StartTime, run.EndTime, run.FilesProcessed,
		run.FilesFetched, run.FilesUpToDate, run.FilesSkipped,
		run.FilesFailed, run.Status, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// UpdateSyncRun updates an existing SyncRun by ID
func (s *Store) UpdateSyncRun(run *SyncRun) error {
	const query = `
		UPDATE sync_runs SET
			run_id = ?, start_time = ?, end_time = ?, files_processed = ?,
			files_fetched = ?, files_up_to_date = ?, files_skipped = ?,
			files_failed = ?, status = ?, error_message = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(
		query,
		run.RunID, run.StartTime, run.EndTime, run.FilesProcessed,
		run.FilesFetched, run.FilesUpToDate, run.FilesSkipped,
		run.FilesFailed, run.Status, run.ErrorMessage, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("sync run not found: %d", run.ID)
	}

	return nil
}

// GetSyncRun retrieves a SyncRun by ID
func (s *Store) GetSyncRun(id int64) (*SyncRun, error) {
	const query = `
		SELECT id, run_id, start_time, end_time, files_processed, files_fetched,
		       files_up_to_date, files_skipped, files_failed, status, error_message
		FROM sync_runs WHERE id = ?
	`

	run := &SyncRun{}
	err := s.db.QueryRow(query, id).Scan(
		&run.ID, &run.RunID, &run.StartTime, &run.EndTime,
		&run.FilesProcessed, &run.FilesFetched, &run.FilesUpToDate,
		&run.FilesSkipped, &run.FilesFailed, &run.Status, &run.ErrorMessage,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sync run not found: %d", id)
		}
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}

	return run, nil
}

// ListSyncRuns retrieves the most recent SyncRuns, newest first
func (s *Store) ListSyncRuns(limit int) ([]SyncRun, error) {
	query := `
		SELECT id, run_id, start_time, end_time, files_processed, files_fetched,
		       files_up_to_date, files_skipped, files_failed, status, error_message
		FROM sync_runs ORDER BY start_time DESC
	`
	var args []interface{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		run := SyncRun{}
		err := rows.Scan(
			&run.ID, &run.RunID, &run.StartTime, &run.EndTime,
			&run.FilesProcessed, &run.FilesFetched, &run.FilesUpToDate,
			&run.FilesSkipped, &run.FilesFailed, &run.Status, &run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}

	return runs, nil
}

// ============================================================================
// FileRecord Operations
// ============================================================================

// UpsertFileRecord inserts or replaces a FileRecord, keyed by category and
// file name
func (s *Store) UpsertFileRecord(rec *FileRecord) error {
	const query = `
		INSERT OR REPLACE INTO file_records (
			id, category, file_name, target, md5, size, outcome, error,
			last_synced, sync_run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// Pass nil for ID when 0 so SQLite uses AUTOINCREMENT
	var idVal interface{}
	if rec.ID != 0 {
		idVal = rec.ID
	}

	result, err := s.db.Exec(
		query,
		idVal, rec.Category, rec.FileName, rec.Target, rec.MD5,
		rec.Size, rec.Outcome, rec.Error, rec.LastSynced, rec.SyncRunID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id

	return nil
}

// GetFileRecord retrieves a FileRecord by category and file name
func (s *Store) GetFileRecord(category, fileName string) (*FileRecord, error) {
	const query = `
		SELECT id, category, file_name, target, md5, size, outcome, error,
		       last_synced, sync_run_id
		FROM file_records WHERE category = ? AND file_name = ?
	`

	rec := &FileRecord{}
	err := s.db.QueryRow(query, category, fileName).Scan(
		&rec.ID, &rec.Category, &rec.FileName, &rec.Target, &rec.MD5,
		&rec.Size, &rec.Outcome, &rec.Error, &rec.LastSynced, &rec.SyncRunID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("file record not found: %s/%s", category, fileName)
		}
		return nil, fmt.Errorf("failed to query file record: %w", err)
	}

	return rec, nil
}

// ListFileRecords retrieves all FileRecords for a category
func (s *Store) ListFileRecords(category string) ([]FileRecord, error) {
	const query = `
		SELECT id, category, file_name, target, md5, size, outcome, error,
		       last_synced, sync_run_id
		FROM file_records WHERE category = ? ORDER BY file_name
	`

	rows, err := s.db.Query(query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query file records: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		rec := FileRecord{}
		err := rows.Scan(
			&rec.ID, &rec.Category, &rec.FileName, &rec.Target, &rec.MD5,
			&rec.Size, &rec.Outcome, &rec.Error, &rec.LastSynced, &rec.SyncRunID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file records: %w", err)
	}

	return records, nil
}

// CountFileRecords returns the count of FileRecords for a category
func (s *Store) CountFileRecords(category string) (int, error) {
	const query = "SELECT COUNT(*) FROM file_records WHERE category = ?"

	var count int
	err := s.db.QueryRow(query, category).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count file records: %w", err)
	}

	return count, nil
}

// SumFileSize returns the total size of all recorded files for a category
func (s *Store) SumFileSize(category string) (int64, error) {
	const query = "SELECT COALESCE(SUM(size), 0) FROM file_records WHERE category = ?"

	var totalSize int64
	err := s.db.QueryRow(query, category).Scan(&totalSize)
	if err != nil {
		return 0, fmt.Errorf("failed to sum file size: %w", err)
	}

	return totalSize, nil
}
