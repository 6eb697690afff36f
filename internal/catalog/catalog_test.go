package catalog

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePreservesSectionOrder(t *testing.T) {
	feed := `{
		"ce-full": [{"file_name": "c.tar.gz"}],
		"ee-full": [{"file_name": "e.tar.gz"}],
		"other": [{"file_name": "misc.pdf"}]
	}`

	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	var keys []string
	for _, sec := range cat.Sections {
		keys = append(keys, sec.Key)
	}
	want := []string{"ce-full", "ee-full", "other"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("section order = %v, want %v", keys, want)
	}
}

func TestParseRejectsMalformedFeeds(t *testing.T) {
	cases := map[string]string{
		"truncated":     `{"ce-full": [`,
		"root array":    `[{"file_name": "a"}]`,
		"root scalar":   `42`,
		"trailing data": `{"ce-full": []} {"ee-full": []}`,
	}
	for name, feed := range cases {
		if _, err := Parse([]byte(feed)); err == nil {
			t.Errorf("%s: Parse succeeded, want error", name)
		}
	}
}

func TestParseDecodesEntryFields(t *testing.T) {
	feed := `{"ee-patch": [{
		"file_name": "PATCH_SUPEE-1234.sh",
		"md5": "0123456789abcdef0123456789abcdef",
		"ee_versions": ["1.14.0.1"],
		"ce_versions": ["1.9.1.0"],
		"name": "ignored extra field",
		"size": 1234
	}]}`

	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	classified, err := NewClassifier(false, discardLogger()).Classify(cat)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	entries := classified[CategoryEEPatch]
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.FileName != "PATCH_SUPEE-1234.sh" {
		t.Errorf("FileName = %q", e.FileName)
	}
	if e.MD5 != "0123456789abcdef0123456789abcdef" {
		t.Errorf("MD5 = %q", e.MD5)
	}
	if len(e.EEVersions) != 1 || e.EEVersions[0] != "1.14.0.1" {
		t.Errorf("EEVersions = %v", e.EEVersions)
	}
	if len(e.CEVersions) != 1 || e.CEVersions[0] != "1.9.1.0" {
		t.Errorf("CEVersions = %v", e.CEVersions)
	}
}

func TestClassifyMissingChecksumStaysEmpty(t *testing.T) {
	feed := `{"ce-full": [{"file_name": "ancient.tar.gz"}]}`

	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	classified, err := NewClassifier(false, discardLogger()).Classify(cat)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if got := classified[CategoryCEFull][0].MD5; got != "" {
		t.Fatalf("MD5 = %q, want empty", got)
	}
}

func TestClassifyFlattensGroupsInDocumentOrder(t *testing.T) {
	// Group keys deliberately sort differently ("1.10" < "1.9"
	// lexicographically); flattening must follow the document, not a sort.
	feed := `{"ee-full": {
		"1.9":  [{"file_name": "A"}, {"file_name": "B"}],
		"1.10": [{"file_name": "C"}]
	}}`

	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	classified, err := NewClassifier(false, discardLogger()).Classify(cat)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}

	var names []string
	for _, e := range classified[CategoryEEFull] {
		names = append(names, e.FileName)
	}
	if strings.Join(names, ",") != "A,B,C" {
		t.Fatalf("flattened order = %v, want [A B C]", names)
	}
}

func TestClassifyUnknownCategory(t *testing.T) {
	feed := `{
		"legacy": [{"file_name": "old.tar.gz"}],
		"ce-full": [{"file_name": "keep.tar.gz"}]
	}`
	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	classified, err := NewClassifier(false, discardLogger()).Classify(cat)
	if err != nil {
		t.Fatalf("permissive Classify returned error: %v", err)
	}
	if _, ok := classified[Category("legacy")]; ok {
		t.Fatal("unknown category leaked into classified output")
	}
	if len(classified[CategoryCEFull]) != 1 {
		t.Fatal("recognized category missing from classified output")
	}

	if _, err := NewClassifier(true, discardLogger()).Classify(cat); err == nil {
		t.Fatal("strict Classify accepted an unknown category")
	}
}

func TestClassifyOtherIsExcludedButNeverFatal(t *testing.T) {
	feed := `{"other": [{"file_name": "misc.pdf"}]}`
	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	for _, strict := range []bool{false, true} {
		classified, err := NewClassifier(strict, discardLogger()).Classify(cat)
		if err != nil {
			t.Fatalf("strict=%v: Classify returned error: %v", strict, err)
		}
		if len(classified) != 0 {
			t.Fatalf("strict=%v: 'other' entries leaked into classified output", strict)
		}
	}
}

func TestClassifySkipsUnusableSectionShapes(t *testing.T) {
	feed := `{
		"ee-full": "not a list",
		"ce-full": [{"file_name": "ok.tar.gz"}]
	}`
	cat, err := Parse([]byte(feed))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	classified, err := NewClassifier(false, discardLogger()).Classify(cat)
	if err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if _, ok := classified[CategoryEEFull]; ok {
		t.Fatal("unusable section produced entries")
	}
	if len(classified[CategoryCEFull]) != 1 {
		t.Fatal("usable section was dropped alongside the unusable one")
	}
}

func TestSyncCategoriesOrderIsFixed(t *testing.T) {
	want := []Category{CategoryEEFull, CategoryCEFull, CategoryEEPatch, CategoryCEPatch}
	got := SyncCategories()
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SyncCategories()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
