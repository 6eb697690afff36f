package main

import (
	"context"
	"strings"
	"testing"

	"github.com/mageops/magemirror/internal/client"
	"github.com/mageops/magemirror/internal/config"
)

// stubSource serves a fixed catalog payload.
type stubSource struct {
	data []byte
}

func (s *stubSource) FetchCatalog(context.Context) ([]byte, error) {
	return s.data, nil
}

const patchesFeed = `{
	"ce-full": {
		"1.9": [
			{"file_name": "magento-1.9.0.0.tar.gz", "md5": "aaaa", "ce_versions": ["1.9.0.0"]}
		]
	},
	"ce-patch": [
		{"file_name": "PATCH_SUPEE-9767_CE_1.9.0.0_v1.sh", "md5": "bbbb", "ce_versions": ["1.9.0.0", "1.9.1.0"]}
	],
	"ee-patch": [
		{"file_name": "PATCH_SUPEE-9767_EE_1.14.0.1_v1.sh", "md5": "cccc", "ee_versions": ["1.14.0.1"]}
	]
}`

func swapSource(t *testing.T, src client.CatalogSource) {
	t.Helper()
	origSource := globalSource
	origCfg := globalCfg
	globalSource = src
	globalCfg = config.DefaultConfig()
	t.Cleanup(func() {
		globalSource = origSource
		globalCfg = origCfg
	})
}

func TestPatchesRunListsAllVersions(t *testing.T) {
	swapSource(t, &stubSource{data: []byte(patchesFeed)})

	out := captureStdout(t, func() {
		if err := patchesRun(nil, nil); err != nil {
			t.Fatalf("patchesRun returned error: %v", err)
		}
	})

	if !strings.Contains(out, "CE 1.9.0.0:") || !strings.Contains(out, "CE 1.9.1.0:") {
		t.Fatalf("expected CE version keys in output, got: %s", out)
	}
	if !strings.Contains(out, "EE 1.14.0.1:") {
		t.Fatalf("expected EE version key in output, got: %s", out)
	}
	if !strings.Contains(out, "\tPATCH_SUPEE-9767_CE_1.9.0.0_v1.sh") {
		t.Fatalf("expected tab-indented patch file, got: %s", out)
	}
	// Full release archives are not patches
	if strings.Contains(out, "magento-1.9.0.0.tar.gz") {
		t.Fatalf("expected no release archives in patch listing, got: %s", out)
	}
}

func TestPatchesRunSingleVersion(t *testing.T) {
	swapSource(t, &stubSource{data: []byte(patchesFeed)})

	origVersion := patchesVersion
	patchesVersion = "EE 1.14.0.1"
	t.Cleanup(func() { patchesVersion = origVersion })

	out := captureStdout(t, func() {
		if err := patchesRun(nil, nil); err != nil {
			t.Fatalf("patchesRun returned error: %v", err)
		}
	})

	if !strings.Contains(out, "EE 1.14.0.1:") {
		t.Fatalf("expected requested version in output, got: %s", out)
	}
	if strings.Contains(out, "CE 1.9.0.0:") {
		t.Fatalf("expected other versions to be filtered out, got: %s", out)
	}
}

func TestPatchesRunUnknownVersion(t *testing.T) {
	swapSource(t, &stubSource{data: []byte(patchesFeed)})

	origVersion := patchesVersion
	patchesVersion = "CE 2.0.0.0"
	t.Cleanup(func() { patchesVersion = origVersion })

	out := captureStdout(t, func() {
		if err := patchesRun(nil, nil); err != nil {
			t.Fatalf("patchesRun returned error: %v", err)
		}
	})

	if !strings.Contains(out, "No patches found for CE 2.0.0.0") {
		t.Fatalf("expected no-patches message, got: %s", out)
	}
}
