// Package catalog manages the fixed set of reference eyewear images and the
// persisted embedding cache built from them. Each reference image is backed
// by a 3D asset sharing its base name; matching only ever selects a filename
// from this list.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var refExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// List enumerates the reference image filenames in dir, sorted
// lexicographically. A missing directory yields an empty list, not an error:
// an absent catalog is a valid (empty) catalog.
func List(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var refs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if refExtensions[ext] {
			refs = append(refs, e.Name())
		}
	}
	sort.Strings(refs)
	return refs
}

// BaseName strips the extension from a reference filename, yielding the name
// shared with its 3D asset.
func BaseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
