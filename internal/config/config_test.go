package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns sensible defaults
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		getValue func(*Config) string
		want     string
	}{
		{"base url", func(c *Config) string { return c.Endpoint.BaseURL }, "https://www.magentocommerce.com"},
		{"download root", func(c *Config) string { return c.Download.Root }, "downloaded"},
		{"snapshot path", func(c *Config) string { return c.Snapshot.Path }, "info.json"},
		{"cache dir", func(c *Config) string { return c.Cache.Dir }, ""},
		{"db path", func(c *Config) string { return c.History.DBPath }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.getValue(cfg)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if cfg.Endpoint.CatalogTimeout != 60*time.Second {
		t.Errorf("CatalogTimeout = %v, want 60s", cfg.Endpoint.CatalogTimeout)
	}
	if cfg.Download.StrictCategories {
		t.Error("StrictCategories = true, want false")
	}
	if !cfg.Snapshot.Enabled {
		t.Error("Snapshot.Enabled = false, want true")
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
}

// TestLoad tests loading a valid config file
func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "magemirror.yaml")

	configContent := `
endpoint:
  base_url: "https://mirror.example.com"
  catalog_timeout: 90s
download:
  root: "/srv/magento"
  strict_categories: true
snapshot:
  enabled: false
  path: "catalog.json"
  timestamped: true
cache:
  enabled: true
  dir: "/var/cache/magemirror"
  max_age: 6h
history:
  enabled: false
  db_path: "/srv/magento/history.db"
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Endpoint.BaseURL != "https://mirror.example.com" {
		t.Errorf("Endpoint.BaseURL = %q", cfg.Endpoint.BaseURL)
	}
	if cfg.Endpoint.CatalogTimeout != 90*time.Second {
		t.Errorf("Endpoint.CatalogTimeout = %v, want 90s", cfg.Endpoint.CatalogTimeout)
	}
	if cfg.Download.Root != "/srv/magento" {
		t.Errorf("Download.Root = %q", cfg.Download.Root)
	}
	if !cfg.Download.StrictCategories {
		t.Error("Download.StrictCategories = false, want true")
	}
	if cfg.Snapshot.Enabled {
		t.Error("Snapshot.Enabled = true, want false")
	}
	if cfg.Snapshot.Path != "catalog.json" {
		t.Errorf("Snapshot.Path = %q", cfg.Snapshot.Path)
	}
	if !cfg.Snapshot.Timestamped {
		t.Error("Snapshot.Timestamped = false, want true")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
	if cfg.Cache.MaxAge != 6*time.Hour {
		t.Errorf("Cache.MaxAge = %v, want 6h", cfg.Cache.MaxAge)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if cfg.History.DBPath != "/srv/magento/history.db" {
		t.Errorf("History.DBPath = %q", cfg.History.DBPath)
	}
}

// TestLoadPartialFileKeepsDefaults verifies unset keys retain their defaults
func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "magemirror.yaml")

	if err := os.WriteFile(configFile, []byte("download:\n  root: mirror\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Download.Root != "mirror" {
		t.Errorf("Download.Root = %q, want mirror", cfg.Download.Root)
	}
	if cfg.Endpoint.BaseURL != "https://www.magentocommerce.com" {
		t.Errorf("Endpoint.BaseURL lost its default: %q", cfg.Endpoint.BaseURL)
	}
	if !cfg.Snapshot.Enabled {
		t.Error("Snapshot.Enabled lost its default")
	}
}

// TestLoadInvalidYAML tests that Load returns an error for invalid YAML
func TestLoadInvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "invalid.yaml")

	invalidContent := `
endpoint:
  base_url: "https://example.com"
  invalid: [unclosed bracket
`

	if err := os.WriteFile(configFile, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configFile)
	if err == nil {
		t.Error("Load() succeeded, want error for invalid YAML")
	}
}

// TestLoadNonexistentFile tests that Load returns an error for missing files
func TestLoadNonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Error("Load() succeeded, want error for nonexistent file")
	}
}

// TestFindConfigFileNotFound tests that FindConfigFile returns error when no config exists
func TestFindConfigFileNotFound(t *testing.T) {
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	tempDir := t.TempDir()
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	})

	_, err = FindConfigFile()
	if err == nil {
		t.Error("FindConfigFile() succeeded, want error when no config exists")
	}
}

// TestFindConfigFileFound tests that FindConfigFile returns the found config
func TestFindConfigFileFound(t *testing.T) {
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	tempDir := t.TempDir()
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	})

	configFile := filepath.Join(tempDir, "magemirror.yaml")
	if err := os.WriteFile(configFile, []byte("download:\n  root: downloaded\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile() failed: %v", err)
	}
	if found != "magemirror.yaml" {
		t.Errorf("FindConfigFile() = %q, want magemirror.yaml", found)
	}
}

// TestCacheDirDefault tests the CacheDir fallback under the download root
func TestCacheDirDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Download.Root = "/srv/mirror"
	if got := cfg.CacheDir(); got != filepath.Join("/srv/mirror", ".cache") {
		t.Errorf("CacheDir() = %q", got)
	}

	cfg.Cache.Dir = "/var/cache/magemirror"
	if got := cfg.CacheDir(); got != "/var/cache/magemirror" {
		t.Errorf("CacheDir() with explicit dir = %q", got)
	}
}

// TestDBPathDefault tests the DBPath fallback under the download root
func TestDBPathDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Download.Root = "/srv/mirror"
	if got := cfg.DBPath(); got != filepath.Join("/srv/mirror", "magemirror.db") {
		t.Errorf("DBPath() = %q", got)
	}

	cfg.History.DBPath = "/var/lib/magemirror/history.db"
	if got := cfg.DBPath(); got != "/var/lib/magemirror/history.db" {
		t.Errorf("DBPath() with explicit path = %q", got)
	}
}
