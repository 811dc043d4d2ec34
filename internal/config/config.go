// Package config loads siv's project configuration from .siv/config.yaml.
package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the siv configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the siv configuration directory
const ConfigDirName = ".siv"

// CacheFileName is the render cache database inside ConfigDirName
const CacheFileName = "cache.db"

// Config holds all siv configuration
type Config struct {
	Render RenderConfig `yaml:"render"`
	Output OutputConfig `yaml:"output"`
	Scan   ScanConfig   `yaml:"scan"`
	Cache  CacheConfig  `yaml:"cache"`
}

// RenderConfig controls grid assembly and the text presenter.
// Booleans are pointers so that an explicit false survives Merge.
type RenderConfig struct {
	Banner    *bool `yaml:"banner,omitempty"`
	Uppercase *bool `yaml:"uppercase,omitempty"`
	CellWidth int   `yaml:"cell_width"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	Format string `yaml:"format"`
}

// ScanConfig controls which files a directory render picks up
type ScanConfig struct {
	Extensions []string `yaml:"extensions"`
	Exclude    []string `yaml:"exclude"`
	Workers    int      `yaml:"workers"`
}

// CacheConfig controls the render cache
type CacheConfig struct {
	Enabled       *bool `yaml:"enabled,omitempty"`
	MemoryEntries int   `yaml:"memory_entries"`
}

// BannerEnabled reports whether the SOURCE / IS / VIEW banner is drawn.
func (c RenderConfig) BannerEnabled() bool {
	return c.Banner == nil || *c.Banner
}

// UppercaseEnabled reports whether the text presenter upper-cases cells.
func (c RenderConfig) UppercaseEnabled() bool {
	return c.Uppercase == nil || *c.Uppercase
}

// IsEnabled reports whether rendered grids are cached.
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Bool returns a pointer to b, for building configs in code.
func Bool(b bool) *bool {
	return &b
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .siv/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "reading config file")
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .siv directory by walking up from startDir.
// Returns the path to the .siv directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.Wrap(err, "resolving path")
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .siv directory if it doesn't exist.
// Returns the path to the .siv directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", errors.Wrap(err, "resolving path")
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", errors.Newf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", errors.Wrap(err, "creating config directory")
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error wrapping ErrInvalidConfig if validation fails.
func Validate(cfg *Config) error {
	if !IsValidFormat(cfg.Output.Format) {
		return errors.Wrapf(ErrInvalidConfig, "output.format must be one of %v, got %q",
			ValidFormats, cfg.Output.Format)
	}

	if cfg.Render.CellWidth < 1 {
		return errors.Wrapf(ErrInvalidConfig, "render.cell_width must be positive, got %d",
			cfg.Render.CellWidth)
	}

	if cfg.Scan.Workers < 1 {
		return errors.Wrapf(ErrInvalidConfig, "scan.workers must be positive, got %d",
			cfg.Scan.Workers)
	}

	for _, ext := range cfg.Scan.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return errors.Wrapf(ErrInvalidConfig, "scan.extensions entries must look like .swift, got %q", ext)
		}
	}

	for _, pattern := range cfg.Scan.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "scan.exclude pattern %q: %v", pattern, err)
		}
	}

	if cfg.Cache.MemoryEntries < 0 {
		return errors.Wrapf(ErrInvalidConfig, "cache.memory_entries must be non-negative, got %d",
			cfg.Cache.MemoryEntries)
	}

	return nil
}

// SaveDefault writes the default configuration to .siv/config.yaml in workDir.
// Creates the .siv directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", errors.Newf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", errors.Wrap(err, "marshaling config")
	}

	header := "# siv configuration\n# render: banner, uppercase, cell_width\n# output: format (text, yaml, json)\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", errors.Wrap(err, "writing config file")
	}

	return configPath, nil
}
