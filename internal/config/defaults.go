package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Banner:    Bool(true),
			Uppercase: Bool(true),
			CellWidth: 9,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Scan: ScanConfig{
			Extensions: []string{".swift"},
			Exclude: []string{
				".build/**",
				"Pods/**",
				"**/*.generated.swift",
			},
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled:       Bool(true),
			MemoryEntries: 256,
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	return &Config{
		Render: mergeRenderConfig(loaded.Render, defaults.Render),
		Output: mergeOutputConfig(loaded.Output, defaults.Output),
		Scan:   mergeScanConfig(loaded.Scan, defaults.Scan),
		Cache:  mergeCacheConfig(loaded.Cache, defaults.Cache),
	}
}

func mergeRenderConfig(loaded, defaults RenderConfig) RenderConfig {
	result := RenderConfig{
		Banner:    mergeBool(loaded.Banner, defaults.Banner),
		Uppercase: mergeBool(loaded.Uppercase, defaults.Uppercase),
	}

	// CellWidth: use loaded if non-zero
	if loaded.CellWidth != 0 {
		result.CellWidth = loaded.CellWidth
	} else {
		result.CellWidth = defaults.CellWidth
	}

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := OutputConfig{}

	if loaded.Format != "" {
		result.Format = loaded.Format
	} else {
		result.Format = defaults.Format
	}

	return result
}

func mergeScanConfig(loaded, defaults ScanConfig) ScanConfig {
	result := ScanConfig{}

	if len(loaded.Extensions) > 0 {
		result.Extensions = loaded.Extensions
	} else {
		result.Extensions = defaults.Extensions
	}

	// Use loaded exclude patterns if provided, otherwise defaults
	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	if loaded.Workers != 0 {
		result.Workers = loaded.Workers
	} else {
		result.Workers = defaults.Workers
	}

	return result
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	result := CacheConfig{
		Enabled: mergeBool(loaded.Enabled, defaults.Enabled),
	}

	if loaded.MemoryEntries != 0 {
		result.MemoryEntries = loaded.MemoryEntries
	} else {
		result.MemoryEntries = defaults.MemoryEntries
	}

	return result
}

// mergeBool keeps an explicitly set loaded value, including false.
func mergeBool(loaded, defaults *bool) *bool {
	if loaded != nil {
		return Bool(*loaded)
	}
	if defaults != nil {
		return Bool(*defaults)
	}
	return nil
}

// ValidFormats lists the valid values for output.format
var ValidFormats = []string{"text", "yaml", "json"}

// IsValidFormat checks if the given output format is valid
func IsValidFormat(format string) bool {
	for _, valid := range ValidFormats {
		if format == valid {
			return true
		}
	}
	return false
}
