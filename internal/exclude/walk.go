package exclude

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/cockroachdb/errors"
)

// Matcher applies scan.exclude glob patterns to slash-separated paths
// relative to a project root. Patterns use doublestar syntax, so "**"
// crosses directory boundaries.
type Matcher struct {
	patterns []string
	dirs     []string
}

// NewMatcher builds a matcher from patterns and already-detected
// directories (such as AutoExcludeResult.Directories).
func NewMatcher(patterns []string, dirs []string) *Matcher {
	m := &Matcher{patterns: patterns}
	for _, d := range dirs {
		m.dirs = append(m.dirs, filepath.ToSlash(d))
	}
	return m
}

// Excluded reports whether the relative file path rel is excluded.
func (m *Matcher) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, d := range m.dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	for _, p := range m.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// ExcludedDir reports whether the whole directory rel can be skipped: it is
// a detected directory, or a pattern of the form "dir/**" names it.
func (m *Matcher) ExcludedDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, d := range m.dirs {
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	for _, p := range m.patterns {
		prefix, ok := strings.CutSuffix(p, "/**")
		if !ok {
			continue
		}
		if matched, _ := doublestar.Match(prefix, rel); matched {
			return true
		}
	}
	return false
}

// Collect walks root and returns every file whose extension is in
// extensions and which the matcher does not exclude, sorted by path.
// Directories named in skipDirs are never visited.
func Collect(root string, extensions []string, m *Matcher) ([]string, error) {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if skipDirs[d.Name()] || m.ExcludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !exts[strings.ToLower(filepath.Ext(path))] || m.Excluded(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}

	sort.Strings(files)
	return files, nil
}

// CollectProject is Collect with marker-based detection applied first.
func CollectProject(root string, extensions, patterns []string) ([]string, error) {
	auto := DetectAutoExcludes(root)
	return Collect(root, extensions, NewMatcher(patterns, auto.Directories))
}

// SkipDir reports whether a directory with this base name is never scanned.
func SkipDir(name string) bool {
	return skipDirs[name]
}
