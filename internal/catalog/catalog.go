// Package catalog models the vendor download catalog: the JSON feed that
// lists every release archive and patch file the remote offers, keyed by
// category. It parses the feed, classifies sections into the categories a
// sync run mirrors, indexes patch applicability, and writes feed snapshots.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Category identifies one top-level section of the download catalog.
type Category string

const (
	CategoryEEFull  Category = "ee-full"
	CategoryCEFull  Category = "ce-full"
	CategoryEEPatch Category = "ee-patch"
	CategoryCEPatch Category = "ce-patch"

	// CategoryOther appears in the feed but is never synchronized: it holds
	// miscellaneous artifacts outside the release/patch lifecycle.
	CategoryOther Category = "other"
)

// SyncCategories returns the categories eligible for mirroring, in the fixed
// order sync runs process them.
func SyncCategories() []Category {
	return []Category{CategoryEEFull, CategoryCEFull, CategoryEEPatch, CategoryCEPatch}
}

// IsPatch reports whether the category holds patch files.
func (c Category) IsPatch() bool {
	return c == CategoryEEPatch || c == CategoryCEPatch
}

// syncable reports whether sync runs mirror this category.
func (c Category) syncable() bool {
	switch c {
	case CategoryEEFull, CategoryCEFull, CategoryEEPatch, CategoryCEPatch:
		return true
	}
	return false
}

// Entry is a single downloadable file as the catalog describes it. The feed
// carries more fields than these; only the ones sync and patch indexing use
// are decoded. MD5 may be empty: old entries predate checksums.
type Entry struct {
	FileName   string   `json:"file_name"`
	MD5        string   `json:"md5"`
	EEVersions []string `json:"ee_versions"`
	CEVersions []string `json:"ce_versions"`
}

// Section is one top-level key of the catalog document paired with its raw,
// not yet flattened value.
type Section struct {
	Key string
	Raw json.RawMessage
}

// Catalog is the parsed feed. Sections preserve the document's own key
// order, which makes grouped-section flattening deterministic for a given
// feed payload.
type Catalog struct {
	Sections []Section
}

// Parse decodes the raw catalog feed. The root must be a JSON object; its
// keys are kept in document order. Section values stay raw here, the
// Classifier decides how to interpret each one.
func Parse(data []byte) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("catalog root is not a JSON object")
	}

	var cat Catalog
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode catalog key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("catalog key is not a string: %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode catalog section %q: %w", key, err)
		}
		cat.Sections = append(cat.Sections, Section{Key: key, Raw: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("catalog has trailing data after the root object")
	}
	return &cat, nil
}
