package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Render.BannerEnabled() {
		t.Error("expected banner enabled by default")
	}
	if !cfg.Render.UppercaseEnabled() {
		t.Error("expected uppercase enabled by default")
	}
	if cfg.Render.CellWidth != 9 {
		t.Errorf("expected cell_width 9, got %d", cfg.Render.CellWidth)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("expected format text, got %s", cfg.Output.Format)
	}
	if len(cfg.Scan.Extensions) != 1 || cfg.Scan.Extensions[0] != ".swift" {
		t.Errorf("expected extensions [.swift], got %v", cfg.Scan.Extensions)
	}
	if len(cfg.Scan.Exclude) != 3 {
		t.Errorf("expected 3 exclude patterns, got %d", len(cfg.Scan.Exclude))
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Scan.Workers)
	}
	if !cfg.Cache.IsEnabled() {
		t.Error("expected cache enabled by default")
	}
	if cfg.Cache.MemoryEntries != 256 {
		t.Errorf("expected memory_entries 256, got %d", cfg.Cache.MemoryEntries)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"text", true},
		{"yaml", true},
		{"json", true},
		{"TEXT", false},
		{"xml", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			if got := IsValidFormat(tt.format); got != tt.want {
				t.Errorf("IsValidFormat(%q) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid format",
			modify: func(c *Config) {
				c.Output.Format = "xml"
			},
			wantErr: true,
		},
		{
			name: "zero cell width",
			modify: func(c *Config) {
				c.Render.CellWidth = 0
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			modify: func(c *Config) {
				c.Scan.Workers = 0
			},
			wantErr: true,
		},
		{
			name: "extension without dot",
			modify: func(c *Config) {
				c.Scan.Extensions = []string{"swift"}
			},
			wantErr: true,
		},
		{
			name: "malformed exclude pattern",
			modify: func(c *Config) {
				c.Scan.Exclude = []string{"[abc"}
			},
			wantErr: true,
		},
		{
			name: "negative memory entries",
			modify: func(c *Config) {
				c.Cache.MemoryEntries = -1
			},
			wantErr: true,
		},
		{
			name: "disabled memory tier",
			modify: func(c *Config) {
				c.Cache.MemoryEntries = 0
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := DefaultConfig()

	t.Run("empty loaded uses all defaults", func(t *testing.T) {
		merged := Merge(&Config{}, defaults)

		if merged.Output.Format != defaults.Output.Format {
			t.Errorf("expected format %s, got %s", defaults.Output.Format, merged.Output.Format)
		}
		if merged.Render.CellWidth != defaults.Render.CellWidth {
			t.Errorf("expected cell_width %d, got %d", defaults.Render.CellWidth, merged.Render.CellWidth)
		}
		if !merged.Render.BannerEnabled() || !merged.Cache.IsEnabled() {
			t.Error("expected boolean defaults to carry over")
		}
	})

	t.Run("loaded values take precedence", func(t *testing.T) {
		loaded := &Config{
			Render: RenderConfig{CellWidth: 12},
			Output: OutputConfig{Format: "json"},
			Scan:   ScanConfig{Workers: 8},
		}
		merged := Merge(loaded, defaults)

		if merged.Render.CellWidth != 12 {
			t.Errorf("expected cell_width 12, got %d", merged.Render.CellWidth)
		}
		if merged.Output.Format != "json" {
			t.Errorf("expected format json, got %s", merged.Output.Format)
		}
		if merged.Scan.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", merged.Scan.Workers)
		}

		// Unset values should use defaults
		if len(merged.Scan.Extensions) != len(defaults.Scan.Extensions) {
			t.Errorf("expected default extensions, got %v", merged.Scan.Extensions)
		}
	})

	t.Run("explicit false survives", func(t *testing.T) {
		loaded := &Config{
			Render: RenderConfig{Banner: Bool(false), Uppercase: Bool(false)},
			Cache:  CacheConfig{Enabled: Bool(false)},
		}
		merged := Merge(loaded, defaults)

		if merged.Render.BannerEnabled() {
			t.Error("expected banner disabled")
		}
		if merged.Render.UppercaseEnabled() {
			t.Error("expected uppercase disabled")
		}
		if merged.Cache.IsEnabled() {
			t.Error("expected cache disabled")
		}
	})

	t.Run("does not alias defaults", func(t *testing.T) {
		merged := Merge(&Config{}, defaults)
		*merged.Render.Banner = false
		if !defaults.Render.BannerEnabled() {
			t.Error("mutating merged config changed defaults")
		}
	})
}

func TestFindConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	projectDir := filepath.Join(tmpDir, "project")
	subDir := filepath.Join(projectDir, "Sources", "App")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("no config dir returns error", func(t *testing.T) {
		_, err := FindConfigDir(subDir)
		if err == nil {
			t.Error("expected error when no .siv directory exists")
		}
	})

	configDir := filepath.Join(projectDir, ConfigDirName)
	if err := os.Mkdir(configDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds config dir in current directory", func(t *testing.T) {
		found, err := FindConfigDir(projectDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("finds config dir in parent directory", func(t *testing.T) {
		found, err := FindConfigDir(subDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()
	expectedDir := filepath.Join(tmpDir, ConfigDirName)

	dir, err := EnsureConfigDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != expectedDir {
		t.Errorf("expected %s, got %s", expectedDir, dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("config directory not created: %v", err)
	}

	// Second call returns the same directory
	again, err := EnsureConfigDir(tmpDir)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if again != expectedDir {
		t.Errorf("expected %s, got %s", expectedDir, again)
	}
}

func TestEnsureConfigDirRejectsFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigDirName), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureConfigDir(tmpDir); err == nil {
		t.Error("expected error when .siv is a file")
	}
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("loads valid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
render:
  banner: false
  cell_width: 12
scan:
  exclude:
    - Carthage/**
output:
  format: yaml
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Render.BannerEnabled() {
			t.Error("expected banner disabled")
		}
		if cfg.Render.CellWidth != 12 {
			t.Errorf("expected cell_width 12, got %d", cfg.Render.CellWidth)
		}
		if cfg.Output.Format != "yaml" {
			t.Errorf("expected format yaml, got %s", cfg.Output.Format)
		}
		if len(cfg.Scan.Exclude) != 1 || cfg.Scan.Exclude[0] != "Carthage/**" {
			t.Errorf("expected loaded exclude patterns, got %v", cfg.Scan.Exclude)
		}

		// Check defaults were applied for missing values
		if !cfg.Render.UppercaseEnabled() {
			t.Error("expected default uppercase")
		}
		if cfg.Scan.Workers != 4 {
			t.Errorf("expected default workers 4, got %d", cfg.Scan.Workers)
		}
	})

	t.Run("returns defaults for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Output.Format != DefaultConfig().Output.Format {
			t.Errorf("expected default format, got %s", cfg.Output.Format)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("invalid: yaml: content"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadFromPath(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for invalid config values", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "bad-values.yaml")
		content := `
output:
  format: xml
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("returns defaults when no config dir exists", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Output.Format != DefaultConfig().Output.Format {
			t.Errorf("expected default config")
		}
	})

	t.Run("loads config from .siv directory", func(t *testing.T) {
		configDir := filepath.Join(tmpDir, ConfigDirName)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}

		content := `
output:
  format: json
`
		configPath := filepath.Join(configDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("expected format json, got %s", cfg.Output.Format)
		}
	})
}

func TestSaveDefault(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates default config file", func(t *testing.T) {
		configPath, err := SaveDefault(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectedPath := filepath.Join(tmpDir, ConfigDirName, ConfigFileName)
		if configPath != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, configPath)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		defaults := DefaultConfig()
		if cfg.Output.Format != defaults.Output.Format || cfg.Render.CellWidth != defaults.Render.CellWidth {
			t.Errorf("saved config doesn't match defaults")
		}
		if !cfg.Render.BannerEnabled() {
			t.Error("saved config lost banner default")
		}
	})

	t.Run("fails if config already exists", func(t *testing.T) {
		if _, err := SaveDefault(tmpDir); err == nil {
			t.Error("expected error when config already exists")
		}
	})
}
