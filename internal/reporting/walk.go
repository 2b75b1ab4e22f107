// internal/reporting/walk.go
package reporting

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/intellisa/iacsec/api/schemas"
)

// CandidateFiles enumerates the in-scope manifest files under root, filtered
// by the extension set of the requested technology (the union of all known
// extensions for TechAuto). Paths are returned slash-separated and relative to
// root, sorted, so they line up with detections' repo-relative file fields. A
// root that is itself a file yields exactly that file.
func CandidateFiles(root string, tech schemas.Tech) ([]string, error) {
	extensions := make(map[string]bool)
	for _, ext := range tech.Extensions() {
		extensions[ext] = true
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if extensions[filepath.Ext(root)] {
			return []string{filepath.ToSlash(filepath.Base(root))}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !extensions[filepath.Ext(path)] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
