package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mageops/magemirror/internal/catalog"
)

var patchesVersion string

func newPatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patches",
		Short: "List patch files grouped by applicable release version",
		Long: `List the patch files the catalog offers, grouped by the release version
they apply to. Version keys carry an edition prefix ("EE 1.14.0.1",
"CE 1.9.0.0"); a patch that applies to several versions appears under each
of them.

Use --version to list the patches for a single release.`,
		Example: `  magemirror patches
  magemirror patches --version "CE 1.9.0.0"`,
		RunE: patchesRun,
	}

	cmd.Flags().StringVar(&patchesVersion, "version", "", "show patches for a single release version")

	return cmd
}

func patchesRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	if globalSource == nil {
		return fmt.Errorf("download client not initialized")
	}

	ctx := context.Background()

	raw, err := globalSource.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	cat, err := catalog.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	classifier := catalog.NewClassifier(globalCfg.Download.StrictCategories, log)
	classified, err := classifier.Classify(cat)
	if err != nil {
		return fmt.Errorf("failed to classify catalog: %w", err)
	}

	index := catalog.BuildPatchIndex(classified)

	if patchesVersion != "" {
		files := index.Files(patchesVersion)
		if len(files) == 0 {
			fmt.Printf("No patches found for %s\n", patchesVersion)
			return nil
		}
		printPatchVersion(patchesVersion, files)
		return nil
	}

	versions := index.Versions()
	if len(versions) == 0 {
		fmt.Println("The catalog lists no patches")
		return nil
	}

	for _, version := range versions {
		printPatchVersion(version, index.Files(version))
	}

	return nil
}

func printPatchVersion(version string, files []string) {
	fmt.Printf("%s:\n", version)
	for _, f := range files {
		fmt.Printf("\t%s\n", f)
	}
}
