package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Classifier normalizes a parsed catalog into per-category entry lists.
//
// Unknown section keys are skipped with a warning by default. Strict mode
// turns them into an error before any filesystem work starts. The "other"
// section is a recognized part of the feed that sync deliberately ignores,
// so it passes both modes.
type Classifier struct {
	Strict bool

	logger *slog.Logger
}

// NewClassifier creates a Classifier with the given unknown-category policy.
func NewClassifier(strict bool, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{Strict: strict, logger: logger}
}

// Classify partitions catalog sections into the recognized sync categories.
// Grouped sections flatten in the document's own key order. A recognized
// section with an unusable shape is skipped with a warning, never fatal.
func (c *Classifier) Classify(cat *Catalog) (map[Category][]Entry, error) {
	classified := make(map[Category][]Entry)
	for _, sec := range cat.Sections {
		category := Category(sec.Key)
		if !category.syncable() {
			if category == CategoryOther {
				c.logger.Debug("category excluded from sync", "category", sec.Key)
				continue
			}
			if c.Strict {
				return nil, fmt.Errorf("unknown catalog category %q", sec.Key)
			}
			c.logger.Warn("unknown catalog category, skipping", "category", sec.Key)
			continue
		}

		entries, err := flattenSection(sec.Raw)
		if err != nil {
			c.logger.Warn("unusable catalog section, skipping", "category", sec.Key, "error", err)
			continue
		}
		classified[category] = append(classified[category], entries...)
	}
	return classified, nil
}

// flattenSection decodes a section value. The feed uses two shapes: a plain
// entry array, or an object grouping entry arrays under arbitrary keys
// (typically version prefixes). Group values concatenate in document order.
func flattenSection(raw json.RawMessage) ([]Entry, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("section is empty")
	}

	switch trimmed[0] {
	case '[':
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode entry list: %w", err)
		}
		return entries, nil

	case '{':
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode group object: %w", err)
		}
		var entries []Entry
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("decode group key: %w", err)
			}
			key, _ := keyTok.(string)

			var group []Entry
			if err := dec.Decode(&group); err != nil {
				return nil, fmt.Errorf("decode group %q: %w", key, err)
			}
			entries = append(entries, group...)
		}
		return entries, nil

	default:
		return nil, fmt.Errorf("section is neither an entry list nor a group object")
	}
}
