package exclude

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectAutoExcludes_Empty(t *testing.T) {
	tmpDir := t.TempDir()

	result := DetectAutoExcludes(tmpDir)

	if len(result.Directories) != 0 {
		t.Errorf("expected 0 directories, got %d: %v", len(result.Directories), result.Directories)
	}
}

func TestDetectAutoExcludes(t *testing.T) {
	tests := []struct {
		name    string
		marker  string
		dir     string
		makeDir bool
		want    []string
	}{
		{"swiftpm", "Package.swift", ".build", true, []string{".build"}},
		{"swiftpm without build dir", "Package.swift", ".build", false, nil},
		{"cocoapods", "Podfile", "Pods", true, []string{"Pods"}},
		{"cocoapods without pods dir", "Podfile", "Pods", false, nil},
		{"carthage", "Cartfile", "Carthage", true, []string{"Carthage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			mustWrite(t, filepath.Join(tmpDir, tt.marker), "")
			if tt.makeDir {
				mustMkdir(t, filepath.Join(tmpDir, tt.dir))
			}

			result := DetectAutoExcludes(tmpDir)

			if len(result.Directories) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, result.Directories)
			}
			for _, dir := range tt.want {
				if !slices.Contains(result.Directories, dir) {
					t.Errorf("expected %q in directories, got %v", dir, result.Directories)
				}
				if result.Reasons[dir] == "" {
					t.Errorf("expected reason for %s", dir)
				}
			}
		})
	}
}

func TestDetectAutoExcludes_NestedPackage(t *testing.T) {
	tmpDir := t.TempDir()

	mustWrite(t, filepath.Join(tmpDir, "Package.swift"), "")
	mustMkdir(t, filepath.Join(tmpDir, ".build"))
	mustWrite(t, filepath.Join(tmpDir, "Tools", "Gen", "Package.swift"), "")
	mustMkdir(t, filepath.Join(tmpDir, "Tools", "Gen", ".build"))

	result := DetectAutoExcludes(tmpDir)

	nested := filepath.Join("Tools", "Gen", ".build")
	for _, dir := range []string{".build", nested} {
		if !slices.Contains(result.Directories, dir) {
			t.Errorf("expected %q in directories, got %v", dir, result.Directories)
		}
	}
}
