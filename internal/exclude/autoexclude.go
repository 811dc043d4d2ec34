// Package exclude decides which files a directory render visits: it detects
// dependency and build directories and applies the configured glob patterns.
package exclude

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// skipDirs are never descended into, whether or not a marker was found.
var skipDirs = map[string]bool{
	".git":        true,
	".build":      true,
	".swiftpm":    true,
	"DerivedData": true,
	"Pods":        true,
	"Carthage":    true,
}

// marker is a manifest file whose presence means a sibling directory holds
// fetched or built dependencies.
type marker struct {
	file   string
	dir    string
	reason string
}

var markers = []marker{
	{"Package.swift", ".build", "SwiftPM build artifacts (Package.swift detected)"},
	{"Podfile", "Pods", "CocoaPods dependencies (Podfile detected)"},
	{"Cartfile", "Carthage", "Carthage dependencies (Cartfile detected)"},
}

// AutoExcludeResult lists detected dependency directories, relative to the
// project root, and why each was excluded.
type AutoExcludeResult struct {
	Directories []string
	Reasons     map[string]string
}

func (r *AutoExcludeResult) add(dir, reason string) {
	if slices.Contains(r.Directories, dir) {
		return
	}
	r.Directories = append(r.Directories, dir)
	r.Reasons[dir] = reason
}

// DetectAutoExcludes finds dependency directories below projectRoot. A
// directory is only reported when its marker manifest sits next to it, so
// nested packages (Tools/Gen/Package.swift) are found too. Unreadable
// directories are skipped silently.
func DetectAutoExcludes(projectRoot string) *AutoExcludeResult {
	result := &AutoExcludeResult{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != projectRoot && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		for _, m := range markers {
			if d.Name() != m.file {
				continue
			}
			sibling := filepath.Join(filepath.Dir(path), m.dir)
			if info, err := os.Stat(sibling); err != nil || !info.IsDir() {
				continue
			}
			if rel, err := filepath.Rel(projectRoot, sibling); err == nil {
				result.add(rel, m.reason)
			}
		}
		return nil
	})

	return result
}
