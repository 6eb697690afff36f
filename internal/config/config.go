package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	Download DownloadConfig `yaml:"download"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Cache    CacheConfig    `yaml:"cache"`
	History  HistoryConfig  `yaml:"history"`
}

// EndpointConfig holds remote endpoint settings
type EndpointConfig struct {
	BaseURL        string        `yaml:"base_url"`
	CatalogTimeout time.Duration `yaml:"catalog_timeout"`
}

// DownloadConfig holds mirror tree settings
type DownloadConfig struct {
	Root             string `yaml:"root"`
	StrictCategories bool   `yaml:"strict_categories"`
}

// SnapshotConfig controls catalog snapshot persistence
type SnapshotConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	Timestamped bool   `yaml:"timestamped"`
}

// CacheConfig controls catalog response caching.
// MaxAge <= 0 means a cached catalog never expires.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	MaxAge  time.Duration `yaml:"max_age"`
}

// HistoryConfig controls the sync history database
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			BaseURL:        "https://www.magentocommerce.com",
			CatalogTimeout: 60 * time.Second,
		},
		Download: DownloadConfig{
			Root:             "downloaded",
			StrictCategories: false,
		},
		Snapshot: SnapshotConfig{
			Enabled:     true,
			Path:        "info.json",
			Timestamped: false,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     "",
			MaxAge:  0,
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
		},
	}
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"magemirror.yaml",
		"/etc/magemirror/magemirror.yaml",
	}

	// Add user config path
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "magemirror", "magemirror.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// CacheDir returns the catalog cache directory, defaulting to a hidden
// directory under the download root.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Download.Root, ".cache")
}

// DBPath returns the sync history database path, defaulting to a file
// under the download root.
func (c *Config) DBPath() string {
	if c.History.DBPath != "" {
		return c.History.DBPath
	}
	return filepath.Join(c.Download.Root, "magemirror.db")
}
