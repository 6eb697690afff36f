package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mageops/magemirror/internal/client"
	"github.com/mageops/magemirror/internal/config"
	"github.com/mageops/magemirror/internal/safety"
	"github.com/mageops/magemirror/internal/store"
)

var (
	// Global flags
	cfgPath      string
	downloadRoot string
	logLevel     string
	logFormat    string
	quiet        bool
	globalCfg    *config.Config
	logger       *slog.Logger

	// Global components
	globalStore  *store.Store
	globalClient *client.Client
	globalSource client.CatalogSource
)

// initializeComponents sets up the store and the download client for commands
// that need them
func initializeComponents(needStore, needClient bool) error {
	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	// Initialize store
	if needStore && globalCfg.History.Enabled {
		st, err := store.New(globalCfg.DBPath(), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		globalStore = st
	}

	// Initialize download client
	if needClient {
		creds, err := config.CredentialsFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load credentials: %w", err)
		}

		if _, err := safety.ValidateHTTPURL(globalCfg.Endpoint.BaseURL); err != nil {
			return fmt.Errorf("invalid endpoint base URL: %w", err)
		}

		c := client.New(globalCfg.Endpoint.BaseURL, creds, globalCfg.Endpoint.CatalogTimeout, logger)
		if !quiet {
			c.OnProgress = newProgressPrinter().update
		}
		globalClient = c

		// Catalog reads go through the cache layer when enabled
		globalSource = client.CatalogSource(c)
		if globalCfg.Cache.Enabled {
			globalSource = client.NewCachedCatalogSource(c, globalCfg.CacheDir(), globalCfg.Cache.MaxAge, logger)
		}
	}

	logger.Debug("components initialized")
	return nil
}

// componentNeeds reports which components a command requires
func componentNeeds(cmdName string) (needStore, needClient bool) {
	switch cmdName {
	case "sync":
		return true, true
	case "patches":
		return false, true
	case "status":
		return true, false
	}
	return false, false
}

// closeStore closes the global store connection
func closeStore() {
	if globalStore != nil {
		if err := globalStore.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magemirror",
		Short: "Mirror the Magento release and patch download catalog",
		Long: `magemirror keeps a local mirror of the Magento download catalog: full
release archives and patch files for both the Community and Enterprise
editions. It fetches the vendor's catalog feed, compares the advertised MD5
digests against files already on disk, and downloads only what is missing or
stale.

Credentials come from the MAGEID and TOKEN environment variables (a .env file
in the working directory is read if present).`,
		Example: `  magemirror sync
  magemirror sync --dry-run
  magemirror sync --category ce-patch,ee-patch --force
  magemirror patches --version "CE 1.9.0.0"
  magemirror status`,
		Version: "1.0.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize logging
			setupLogging()

			// Skip config loading for commands that don't need it
			if shouldSkipConfig(cmd.Name()) {
				return nil
			}

			// Load config
			if cfgPath == "" {
				var err error
				cfgPath, err = config.FindConfigFile()
				if err != nil && cmd.Name() != "init" {
					logger.Warn("config file not found, using defaults", "error", err)
				}
			}

			if cfgPath != "" {
				var err error
				globalCfg, err = config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
			} else {
				globalCfg = config.DefaultConfig()
			}

			// Override with command-line flags if provided
			if downloadRoot != "" {
				globalCfg.Download.Root = downloadRoot
			}

			if !quiet {
				logger.Debug("config loaded", "path", cfgPath, "download_root", globalCfg.Download.Root)
			}

			// Initialize components after config is loaded
			needStore, needClient := componentNeeds(cmd.Name())
			if needStore || needClient {
				if err := initializeComponents(needStore, needClient); err != nil {
					return fmt.Errorf("failed to initialize components: %w", err)
				}
			}

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeStore()
		},
	}

	// Add persistent flags
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&downloadRoot, "download-root", "", "override download root directory")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress progress output")

	// Add subcommands
	cmd.AddCommand(
		newSyncCmd(),
		newPatchesCmd(),
		newStatusCmd(),
		newConfigCmd(),
	)

	return cmd
}

// setupLogging initializes the slog logger based on flags
func setupLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(logFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// shouldSkipConfig checks if a command should skip config loading
func shouldSkipConfig(cmdName string) bool {
	skipConfigCmds := map[string]bool{
		"help":    true,
		"version": true,
	}
	return skipConfigCmds[cmdName]
}
