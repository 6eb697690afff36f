package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteSnapshot persists the raw catalog bytes as pretty-printed JSON with
// sorted keys, so successive snapshots of the same feed diff cleanly.
func WriteSnapshot(path string, raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("snapshot: decode catalog: %w", err)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode catalog: %w", err)
	}
	out = append(out, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// TimestampedSnapshotPath derives a snapshot name carrying the given time:
// "info.json" becomes "info-20060102T150405Z.json".
func TimestampedSnapshotPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "-" + now.UTC().Format("20060102T150405Z") + ext
}
