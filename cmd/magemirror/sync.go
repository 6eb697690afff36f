package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mageops/magemirror/internal/catalog"
	"github.com/mageops/magemirror/internal/engine"
	"github.com/mageops/magemirror/internal/verify"
)

var (
	syncDryRun     bool
	syncForce      bool
	syncCategories string
	syncStrict     bool
	syncNoSnapshot bool
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the local mirror with the vendor catalog",
		Long: `Synchronize the local mirror with the vendor catalog. The command fetches
the catalog feed, writes a snapshot of it next to the mirror, and walks every
recognized category:

  1. Entries whose local file matches the advertised MD5 are left alone
  2. Missing or stale files are downloaded into <root>/<category>/
  3. Entries with unsafe names or excluded archive formats are skipped
  4. A file that fails to download is reported and the run continues

Without --category, all recognized categories are synced.`,
		Example: `  magemirror sync
  magemirror sync --dry-run
  magemirror sync --category ee-full,ee-patch
  magemirror sync --force`,
		RunE: syncRun,
	}

	cmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "show what would be downloaded without making changes")
	cmd.Flags().BoolVar(&syncForce, "force", false, "force re-download of all files regardless of checksums")
	cmd.Flags().StringVar(&syncCategories, "category", "", "comma-separated list of categories to sync")
	cmd.Flags().BoolVar(&syncStrict, "strict", false, "fail on unknown catalog categories instead of skipping them")
	cmd.Flags().BoolVar(&syncNoSnapshot, "no-snapshot", false, "skip writing the catalog snapshot")

	return cmd
}

func syncRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	if globalClient == nil || globalSource == nil {
		return fmt.Errorf("download client not initialized")
	}

	ctx := context.Background()

	log.Info("fetching catalog", "base_url", globalCfg.Endpoint.BaseURL)
	raw, err := globalSource.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	// Snapshot before parsing so a malformed feed can still be inspected
	if globalCfg.Snapshot.Enabled && !syncNoSnapshot && !syncDryRun {
		path := globalCfg.Snapshot.Path
		if globalCfg.Snapshot.Timestamped {
			path = catalog.TimestampedSnapshotPath(path, time.Now())
		}
		if err := catalog.WriteSnapshot(path, raw); err != nil {
			log.Warn("failed to write catalog snapshot", "path", path, "error", err)
		} else {
			log.Info("catalog snapshot written", "path", path)
		}
	}

	cat, err := catalog.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	strict := globalCfg.Download.StrictCategories || syncStrict
	classifier := catalog.NewClassifier(strict, log)
	classified, err := classifier.Classify(cat)
	if err != nil {
		return fmt.Errorf("failed to classify catalog: %w", err)
	}

	var categories []catalog.Category
	if syncCategories != "" {
		for _, c := range strings.Split(syncCategories, ",") {
			categories = append(categories, catalog.Category(strings.TrimSpace(c)))
		}
	}

	syncer := engine.NewSyncer(
		globalCfg.Download.Root,
		verify.NewVerifier(log),
		globalClient,
		globalStore,
		log,
	)

	report, err := syncer.Sync(ctx, classified, engine.Options{
		DryRun:     syncDryRun,
		Force:      syncForce,
		Categories: categories,
	})
	if err != nil {
		return err
	}

	printSyncReport(report)

	if report.TotalFailed() > 0 {
		return fmt.Errorf("sync completed with %d failures", report.TotalFailed())
	}
	if report.HasErrors() {
		return fmt.Errorf("sync completed with category errors")
	}

	return nil
}

func printSyncReport(report *engine.Report) {
	if report.DryRun {
		fmt.Println("DRY RUN: no files were downloaded")
	}

	for _, cr := range report.Categories {
		fmt.Printf("\n%s:\n", cr.Category)

		if cr.Error != "" {
			fmt.Printf("  ERROR: %s\n", cr.Error)
			continue
		}

		fmt.Printf("  Processed:  %d\n", cr.Processed)
		fmt.Printf("  Fetched:    %d\n", cr.Fetched)
		fmt.Printf("  Up to date: %d\n", cr.UpToDate)
		fmt.Printf("  Skipped:    %d\n", cr.Excluded+cr.Unsafe)
		fmt.Printf("  Failed:     %d\n", len(cr.Failed))

		if len(cr.Failed) > 0 {
			fmt.Println("  Failed files:")
			for _, ff := range cr.Failed {
				fmt.Printf("    - %s: %s\n", ff.FileName, ff.Error)
			}
		}
	}

	fmt.Println("\n=== SYNC SUMMARY ===")
	fmt.Printf("Total Processed:  %d\n", report.TotalProcessed())
	fmt.Printf("Total Fetched:    %d\n", report.TotalFetched())
	fmt.Printf("Total Up to date: %d\n", report.TotalUpToDate())
	fmt.Printf("Total Skipped:    %d\n", report.TotalSkipped())
	fmt.Printf("Total Failed:     %d\n", report.TotalFailed())
	fmt.Printf("Duration:         %s\n", report.Duration().Round(time.Millisecond))
}
