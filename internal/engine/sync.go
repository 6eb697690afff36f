// Package engine walks a classified catalog and brings the local mirror tree
// in line with it, one file at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mageops/magemirror/internal/catalog"
	"github.com/mageops/magemirror/internal/safety"
	"github.com/mageops/magemirror/internal/store"
	"github.com/mageops/magemirror/internal/verify"
)

// Fetcher downloads a single catalog file to a local destination.
type Fetcher interface {
	Fetch(ctx context.Context, fileName, dest string) error
}

// Syncer mirrors classified catalog entries into per-category directories
// under a download root.
type Syncer struct {
	root     string
	verifier *verify.Verifier
	fetcher  Fetcher
	store    *store.Store
	logger   *slog.Logger
}

// Options controls a single sync run.
type Options struct {
	// DryRun reports what would be fetched without touching the filesystem
	// or the history store.
	DryRun bool

	// Force re-downloads every file regardless of its local state.
	Force bool

	// Categories restricts the run to the given categories. Empty means all.
	Categories []catalog.Category
}

// NewSyncer creates a Syncer. The store may be nil, in which case no history
// is recorded.
func NewSyncer(root string, verifier *verify.Verifier, fetcher Fetcher, st *store.Store, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		root:     root,
		verifier: verifier,
		fetcher:  fetcher,
		store:    st,
		logger:   logger,
	}
}

// Sync walks the classified entries category by category and downloads every
// file whose local copy is missing or stale. Categories absent from the
// classified map are skipped. A file that fails to download is reported and
// the run moves on; the only fatal error is a download root that cannot be
// created. The context is handed to the Fetcher; the walk itself always runs
// to completion over all entries.
func (s *Syncer) Sync(ctx context.Context, classified map[catalog.Category][]catalog.Entry, opts Options) (*Report, error) {
	startTime := time.Now()
	runID := uuid.NewString()

	s.logger.Info("starting sync",
		"run_id", runID,
		"root", s.root,
		"dry_run", opts.DryRun,
		"force", opts.Force,
	)

	if !opts.DryRun {
		if err := os.MkdirAll(s.root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create download root: %w", err)
		}
	}

	report := &Report{
		RunID:     runID,
		StartTime: startTime,
		DryRun:    opts.DryRun,
	}

	// Open the history row up front so file records can link to it. History
	// is best effort: a store failure is logged and the sync proceeds.
	var syncRun *store.SyncRun
	if s.store != nil && !opts.DryRun {
		syncRun = &store.SyncRun{
			RunID:     runID,
			StartTime: startTime,
			Status:    "running",
		}
		if err := s.store.CreateSyncRun(syncRun); err != nil {
			s.logger.Error("failed to create sync run record", "error", err)
			syncRun = nil
		}
	}

	for _, category := range catalog.SyncCategories() {
		entries, ok := classified[category]
		if !ok {
			continue
		}
		if !categoryWanted(category, opts.Categories) {
			s.logger.Debug("category filtered out", "category", category)
			continue
		}

		cr := s.syncCategory(ctx, category, entries, opts, syncRun)
		report.Categories = append(report.Categories, cr)
	}

	report.EndTime = time.Now()

	if syncRun != nil {
		syncRun.EndTime = report.EndTime
		syncRun.FilesProcessed = report.TotalProcessed()
		syncRun.FilesFetched = report.TotalFetched()
		syncRun.FilesUpToDate = report.TotalUpToDate()
		syncRun.FilesSkipped = report.TotalSkipped()
		syncRun.FilesFailed = report.TotalFailed()
		if report.HasErrors() {
			syncRun.Status = "partial"
			syncRun.ErrorMessage = fmt.Sprintf("%d files failed", report.TotalFailed())
		} else {
			syncRun.Status = "success"
		}
		if err := s.store.UpdateSyncRun(syncRun); err != nil {
			s.logger.Error("failed to update sync run record", "error", err)
		}
	}

	s.logger.Info("sync completed",
		"run_id", runID,
		"processed", report.TotalProcessed(),
		"fetched", report.TotalFetched(),
		"up_to_date", report.TotalUpToDate(),
		"skipped", report.TotalSkipped(),
		"failed", report.TotalFailed(),
		"duration", report.Duration(),
	)

	return report, nil
}

// syncCategory mirrors the entries of one category into its directory.
func (s *Syncer) syncCategory(ctx context.Context, category catalog.Category, entries []catalog.Entry, opts Options, syncRun *store.SyncRun) CategoryReport {
	cr := CategoryReport{
		Category: category,
		Dir:      filepath.Join(s.root, string(category)),
	}

	if !opts.DryRun {
		if err := os.MkdirAll(cr.Dir, 0o755); err != nil {
			cr.Error = fmt.Sprintf("failed to create category directory: %v", err)
			s.logger.Warn("skipping category, directory not creatable",
				"category", category, "dir", cr.Dir, "error", err)
			return cr
		}
	}

	s.logger.Info("syncing category", "category", category, "entries", len(entries))

	for _, entry := range entries {
		cr.Processed++

		if err := safety.CheckCatalogFileName(entry.FileName); err != nil {
			cr.Unsafe++
			s.logger.Warn("skipping entry with unsafe file name",
				"category", category, "file", entry.FileName, "error", err)
			continue
		}

		if hasExcludedExtension(entry.FileName) {
			cr.Excluded++
			continue
		}

		target, err := safety.SafeJoinUnder(cr.Dir, entry.FileName)
		if err != nil {
			cr.Unsafe++
			s.logger.Warn("skipping entry resolving outside category directory",
				"category", category, "file", entry.FileName, "error", err)
			continue
		}
		cr.Targets = append(cr.Targets, target)

		if !opts.Force && s.verifier.Verify(target, entry.MD5) {
			cr.UpToDate++
			s.logger.Debug("file up to date", "category", category, "file", entry.FileName)
			s.recordFile(syncRun, category, entry, target, "up-to-date", "")
			continue
		}

		if opts.DryRun {
			cr.Fetched++
			s.logger.Info("would fetch", "category", category, "file", entry.FileName)
			continue
		}

		if err := s.fetcher.Fetch(ctx, entry.FileName, target); err != nil {
			cr.Failed = append(cr.Failed, FileFailure{
				Category: category,
				FileName: entry.FileName,
				Error:    err.Error(),
			})
			s.logger.Warn("fetch failed",
				"category", category, "file", entry.FileName, "error", err)
			s.recordFile(syncRun, category, entry, target, "failed", err.Error())
			continue
		}

		// The fetched bytes stay on disk either way; a mismatch here means
		// the next run re-downloads.
		if !s.verifier.Verify(target, entry.MD5) {
			const msg = "checksum mismatch after fetch"
			cr.Failed = append(cr.Failed, FileFailure{
				Category: category,
				FileName: entry.FileName,
				Error:    msg,
			})
			s.logger.Warn("fetched file failed verification",
				"category", category, "file", entry.FileName)
			s.recordFile(syncRun, category, entry, target, "failed", msg)
			continue
		}

		cr.Fetched++
		s.recordFile(syncRun, category, entry, target, "fetched", "")
	}

	return cr
}

// recordFile upserts the file's history row. No-op without an open sync run.
func (s *Syncer) recordFile(syncRun *store.SyncRun, category catalog.Category, entry catalog.Entry, target, outcome, errMsg string) {
	if syncRun == nil {
		return
	}

	rec := &store.FileRecord{
		Category:   string(category),
		FileName:   entry.FileName,
		Target:     target,
		MD5:        entry.MD5,
		Outcome:    outcome,
		Error:      errMsg,
		LastSynced: time.Now().UTC(),
		SyncRunID:  syncRun.ID,
	}
	if info, err := os.Stat(target); err == nil {
		rec.Size = info.Size()
	}

	if err := s.store.UpsertFileRecord(rec); err != nil {
		s.logger.Error("failed to upsert file record",
			"category", category, "file", entry.FileName, "error", err)
	}
}

// categoryWanted reports whether a category passes the Options filter.
func categoryWanted(category catalog.Category, filter []catalog.Category) bool {
	if len(filter) == 0 {
		return true
	}
	for _, c := range filter {
		if c == category {
			return true
		}
	}
	return false
}

// hasExcludedExtension reports whether the file name carries an archive
// extension the feed publishes but the mirror does not carry. The feed lists
// the same release as .tar.gz, .zip and .tar.bz2; mirroring one format is
// enough.
func hasExcludedExtension(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return ext == "zip" || ext == "bz2"
}
