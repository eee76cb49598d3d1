// Package config handles nvctool configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/vertexcache/pkg/abc"
)

// Backend names.
const (
	BackendNative = "native"
	BackendSketch = "sketch"
)

// Config holds all tool settings.
type Config struct {
	Import  abc.ImportOptions `yaml:"import"`
	Export  abc.ExportOptions `yaml:"export"`
	Convert ConvertConfig     `yaml:"convert"`
	Logging LoggingConfig     `yaml:"logging"`
}

// ConvertConfig holds scene to cache conversion settings.
type ConvertConfig struct {
	Backend     string        `yaml:"backend"`    // native or sketch
	OutputDir   string        `yaml:"output_dir"` // empty: next to the scene
	Workers     int           `yaml:"workers"`
	WatchDirs   []string      `yaml:"watch_dirs"`
	Debounce    time.Duration `yaml:"debounce"`
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables the metrics endpoint
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Import: abc.DefaultImportOptions(),
		Export: abc.DefaultExportOptions(),
		Convert: ConvertConfig{
			Backend:  BackendNative,
			Workers:  2,
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	switch c.Convert.Backend {
	case BackendNative, BackendSketch:
	default:
		return fmt.Errorf("convert: unknown backend %q", c.Convert.Backend)
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert: workers must be at least 1, got %d", c.Convert.Workers)
	}
	if c.Convert.Debounce < 0 {
		return fmt.Errorf("convert: negative debounce %s", c.Convert.Debounce)
	}
	return nil
}
