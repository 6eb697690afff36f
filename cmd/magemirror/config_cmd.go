package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mageops/magemirror/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage magemirror configuration. Subcommands allow viewing the effective
configuration and writing a starter config file.`,
		Example: `  magemirror config show
  magemirror config init`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration in YAML format. If a config file is
loaded, shows the loaded configuration with any command-line overrides
applied.`,
		Example: `  magemirror config show
  magemirror config show --config /etc/magemirror/magemirror.yaml`,
		RunE: configShowRun,
	}

	return cmd
}

func configShowRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	log.Info("showing configuration")

	data, err := yaml.Marshal(globalCfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Println("Current Configuration:")
	fmt.Println("======================")
	fmt.Println(string(data))

	return nil
}

var configInitForce bool

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file with default values",
		Long: `Write a starter config file populated with the default values. Without an
argument the file is written to magemirror.yaml in the working directory.`,
		Example: `  magemirror config init
  magemirror config init /etc/magemirror/magemirror.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: configInitRun,
	}

	cmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	return cmd
}

func configInitRun(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	path := "magemirror.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info("config file written", "path", path)
	fmt.Printf("Wrote default configuration to %s\n", path)

	return nil
}
