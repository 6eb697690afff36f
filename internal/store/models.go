package store

import "time"

// SyncRun records one sync execution over the catalog
type SyncRun struct {
	ID             int64
	RunID          string // correlates log lines and file records
	StartTime      time.Time
	EndTime        time.Time
	FilesProcessed int
	FilesFetched   int
	FilesUpToDate  int
	FilesSkipped   int // unsafe names and excluded extensions
	FilesFailed    int
	Status         string // "running", "success", "partial", "failed"
	ErrorMessage   string
}

// FileRecord tracks the last known state of one mirrored catalog file
type FileRecord struct {
	ID         int64
	Category   string
	FileName   string
	Target     string // path in the mirror tree
	MD5        string // digest the catalog advertised at sync time
	Size       int64
	Outcome    string // "fetched", "up-to-date", "failed"
	Error      string
	LastSynced time.Time
	SyncRunID  int64
}
