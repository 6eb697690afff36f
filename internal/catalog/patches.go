package catalog

import "sort"

// PatchIndex maps version keys ("EE 1.14.0.1", "CE 1.9.1.0") to the set of
// patch files applicable to that release line.
type PatchIndex map[string]map[string]struct{}

// BuildPatchIndex inverts the patch categories of a classified catalog:
// every patch entry is recorded under each EE and CE version it names, so
// the index answers "which patches does release X require". Non-patch
// categories are ignored. Duplicate listings collapse.
func BuildPatchIndex(classified map[Category][]Entry) PatchIndex {
	idx := make(PatchIndex)
	for category, entries := range classified {
		if !category.IsPatch() {
			continue
		}
		for _, e := range entries {
			for _, v := range e.EEVersions {
				idx.add("EE "+v, e.FileName)
			}
			for _, v := range e.CEVersions {
				idx.add("CE "+v, e.FileName)
			}
		}
	}
	return idx
}

func (idx PatchIndex) add(version, fileName string) {
	files, ok := idx[version]
	if !ok {
		files = make(map[string]struct{})
		idx[version] = files
	}
	files[fileName] = struct{}{}
}

// Versions returns the version keys in lexicographic order. Version strings
// are opaque; no semantic version parsing happens anywhere in the index.
func (idx PatchIndex) Versions() []string {
	versions := make([]string, 0, len(idx))
	for v := range idx {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// Files returns the sorted file names recorded for a version key.
func (idx PatchIndex) Files(version string) []string {
	files := make([]string, 0, len(idx[version]))
	for f := range idx[version] {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
