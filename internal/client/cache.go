package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// cacheFileName is the on-disk name of the cached catalog feed.
const cacheFileName = "catalog.json"

// CachedCatalogSource wraps a CatalogSource with an on-disk cache so
// repeated runs against a slow or rate-limited service reuse the last feed.
//
// A maxAge of zero or less means a cached feed never expires; deleting the
// cache file forces a refresh. Only the catalog is cached: mirrored files
// are already guarded by checksum skip, the mirror tree is their cache.
type CachedCatalogSource struct {
	inner  CatalogSource
	dir    string
	maxAge time.Duration
	logger *slog.Logger
}

// NewCachedCatalogSource creates the caching decorator.
func NewCachedCatalogSource(inner CatalogSource, dir string, maxAge time.Duration, logger *slog.Logger) *CachedCatalogSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCatalogSource{inner: inner, dir: dir, maxAge: maxAge, logger: logger}
}

// FetchCatalog serves the cached feed while it is fresh enough, otherwise
// delegates to the wrapped source and refreshes the cache. Cache write
// failures degrade to a plain fetch, they never fail the run.
func (s *CachedCatalogSource) FetchCatalog(ctx context.Context) ([]byte, error) {
	path := filepath.Join(s.dir, cacheFileName)

	if st, err := os.Stat(path); err == nil && s.fresh(st.ModTime()) {
		data, err := os.ReadFile(path)
		if err == nil {
			s.logger.Debug("serving catalog from cache",
				"path", path, "age", time.Since(st.ModTime()).Round(time.Second))
			return data, nil
		}
		s.logger.Warn("could not read cached catalog, refetching", "path", path, "error", err)
	}

	data, err := s.inner.FetchCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.save(path, data); err != nil {
		s.logger.Warn("could not cache catalog", "path", path, "error", err)
	}
	return data, nil
}

func (s *CachedCatalogSource) fresh(mod time.Time) bool {
	if s.maxAge <= 0 {
		return true
	}
	return time.Since(mod) <= s.maxAge
}

// save writes the cache atomically so an interrupted run never leaves a
// truncated feed behind.
func (s *CachedCatalogSource) save(path string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".catalog-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move cache into place: %w", err)
	}
	tmpPath = ""
	return nil
}
