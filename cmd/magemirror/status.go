package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mageops/magemirror/internal/catalog"
)

var statusLimit int

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Display mirror contents and recent sync runs",
		Long: `Display what the sync history database knows about the mirror: per-category
file counts and sizes, and the most recent sync runs with their outcomes.`,
		Example: `  magemirror status
  magemirror status --limit 20`,
		RunE: statusRun,
	}

	cmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent sync runs to show")

	return cmd
}

func statusRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	if globalStore == nil {
		return fmt.Errorf("sync history is disabled in config")
	}

	// Per-category totals
	fmt.Println("Mirror Status")
	fmt.Println("=============")
	fmt.Println("")
	fmt.Printf("%-12s %10s %12s\n", "Category", "Files", "Size")
	fmt.Println(strings.Repeat("-", 36))

	for _, category := range catalog.SyncCategories() {
		count, err := globalStore.CountFileRecords(string(category))
		if err != nil {
			log.Warn("failed to count file records", "category", category, "error", err)
		}

		size, err := globalStore.SumFileSize(string(category))
		if err != nil {
			log.Warn("failed to sum file size", "category", category, "error", err)
		}

		fmt.Printf("%-12s %10d %12s\n", category, count, formatBytes(size))
	}

	// Recent runs
	runs, err := globalStore.ListSyncRuns(statusLimit)
	if err != nil {
		return fmt.Errorf("failed to list sync runs: %w", err)
	}

	fmt.Println("")
	fmt.Println("Recent Sync Runs")
	fmt.Println("================")
	fmt.Println("")

	if len(runs) == 0 {
		fmt.Println("No sync runs recorded yet")
		return nil
	}

	fmt.Printf("%-18s %9s %8s %10s %8s %8s %9s\n",
		"Started", "Processed", "Fetched", "Up-to-date", "Skipped", "Failed", "Status")
	fmt.Println(strings.Repeat("-", 78))

	for _, run := range runs {
		fmt.Printf("%-18s %9d %8d %10d %8d %8d %9s\n",
			run.StartTime.Format("2006-01-02 15:04"),
			run.FilesProcessed,
			run.FilesFetched,
			run.FilesUpToDate,
			run.FilesSkipped,
			run.FilesFailed,
			run.Status,
		)
	}

	fmt.Println("")

	return nil
}

// formatBytes formats a byte count into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
