package engine

import (
	"time"

	"github.com/mageops/magemirror/internal/catalog"
)

// Report summarizes one sync run across all categories.
type Report struct {
	RunID      string
	StartTime  time.Time
	EndTime    time.Time
	DryRun     bool
	Categories []CategoryReport
}

// CategoryReport summarizes the outcome for a single catalog category.
type CategoryReport struct {
	Category  catalog.Category
	Dir       string
	Processed int
	Fetched   int
	UpToDate  int
	Excluded  int
	Unsafe    int
	Failed    []FileFailure
	Targets   []string

	// Error is set when the category directory could not be created and the
	// whole category was skipped.
	Error string
}

// FileFailure describes a single file that could not be synchronized.
type FileFailure struct {
	Category catalog.Category
	FileName string
	Error    string
}

// Duration returns the wall-clock time the run took.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// TotalProcessed returns the number of catalog entries seen across categories.
func (r *Report) TotalProcessed() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Processed
	}
	return total
}

// TotalFetched returns the number of files downloaded (or, in a dry run, the
// number that would have been).
func (r *Report) TotalFetched() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Fetched
	}
	return total
}

// TotalUpToDate returns the number of files whose local copy already matched.
func (r *Report) TotalUpToDate() int {
	total := 0
	for _, c := range r.Categories {
		total += c.UpToDate
	}
	return total
}

// TotalSkipped returns the number of entries skipped for unsafe names or
// excluded extensions.
func (r *Report) TotalSkipped() int {
	total := 0
	for _, c := range r.Categories {
		total += c.Excluded + c.Unsafe
	}
	return total
}

// TotalFailed returns the number of files that failed to synchronize.
func (r *Report) TotalFailed() int {
	total := 0
	for _, c := range r.Categories {
		total += len(c.Failed)
	}
	return total
}

// Failures returns every file failure across categories, in category order.
func (r *Report) Failures() []FileFailure {
	var failures []FileFailure
	for _, c := range r.Categories {
		failures = append(failures, c.Failed...)
	}
	return failures
}

// HasErrors reports whether any file failed or any category was skipped
// because its directory could not be created.
func (r *Report) HasErrors() bool {
	for _, c := range r.Categories {
		if len(c.Failed) > 0 || c.Error != "" {
			return true
		}
	}
	return false
}
