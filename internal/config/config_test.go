package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Import != abc.DefaultImportOptions() {
		t.Errorf("expected default import options, got %+v", cfg.Import)
	}
	if cfg.Export != abc.DefaultExportOptions() {
		t.Errorf("expected default export options, got %+v", cfg.Export)
	}
	if cfg.Convert.Backend != BackendNative {
		t.Errorf("expected backend native, got %s", cfg.Convert.Backend)
	}
	if cfg.Convert.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Convert.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)

	yamlContent := `
import:
  normals_mode: always_compute
  scale_factor: 0.01
  swap_handedness: false

export:
  compression: zstd
  block_size: 10

convert:
  backend: sketch
  output_dir: /tmp/caches
  workers: 4
  watch_dirs: [/data/scenes]
  debounce: 2s
  metrics_addr: ":9100"

logging:
  level: "debug"
  log_file: "nvctool.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.NormalsMode != abc.NormalsAlwaysCompute {
		t.Errorf("expected always_compute, got %s", cfg.Import.NormalsMode)
	}
	if cfg.Import.ScaleFactor != 0.01 {
		t.Errorf("expected scale factor 0.01, got %g", cfg.Import.ScaleFactor)
	}
	if cfg.Import.SwapHandedness {
		t.Error("expected swap_handedness to be false")
	}
	if !cfg.Import.InterpolateSamples {
		t.Error("fields missing from the file should keep their defaults")
	}
	if cfg.Export.Compression != nvc.CompressionZstd || cfg.Export.BlockSize != 10 {
		t.Errorf("unexpected export options %+v", cfg.Export)
	}
	if cfg.Convert.Backend != BackendSketch {
		t.Errorf("expected backend sketch, got %s", cfg.Convert.Backend)
	}
	if cfg.Convert.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Convert.Workers)
	}
	if len(cfg.Convert.WatchDirs) != 1 || cfg.Convert.WatchDirs[0] != "/data/scenes" {
		t.Errorf("unexpected watch dirs %v", cfg.Convert.WatchDirs)
	}
	if cfg.Convert.Debounce != 2*time.Second {
		t.Errorf("expected debounce 2s, got %s", cfg.Convert.Debounce)
	}
	if cfg.Convert.MetricsAddr != ":9100" {
		t.Errorf("expected metrics addr :9100, got %s", cfg.Convert.MetricsAddr)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "nvctool.log" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":      "convert:\n  workers: [\n",
		"normals":     "import:\n  normals_mode: sometimes\n",
		"compression": "export:\n  compression: lzma\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), path); err == nil {
				t.Error("expected error loading invalid config, got nil")
			}
		})
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/nvctool.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Convert.Backend = "remote" }},
		{"workers", func(c *Config) { c.Convert.Workers = 0 }},
		{"debounce", func(c *Config) { c.Convert.Debounce = -time.Second }},
		{"scale", func(c *Config) { c.Import.ScaleFactor = 0 }},
		{"block size", func(c *Config) { c.Export.BlockSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, FileName), []byte("convert:\n  workers: 1\n"), 0o644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "backend flag",
			setup: func() { *flagBackend = BackendSketch },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Backend != BackendSketch {
					t.Errorf("expected backend sketch, got %s", cfg.Convert.Backend)
				}
			},
			teardown: func() { *flagBackend = "" },
		},
		{
			name:  "output and log file flags",
			setup: func() { *flagOutput = "/tmp/out"; *flagLogFile = "/tmp/nvctool.log" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.OutputDir != "/tmp/out" {
					t.Errorf("expected output dir /tmp/out, got %s", cfg.Convert.OutputDir)
				}
				if cfg.Logging.LogFile != "/tmp/nvctool.log" {
					t.Errorf("expected log file /tmp/nvctool.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagOutput = ""; *flagLogFile = "" },
		},
		{
			name:  "compression flag",
			setup: func() { *flagCompression = "none" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.Compression != nvc.CompressionNone {
					t.Errorf("expected compression none, got %s", cfg.Export.Compression)
				}
			},
			teardown: func() { *flagCompression = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			if err := applyFlags(cfg); err != nil {
				t.Fatalf("applyFlags failed: %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestApplyFlagsBadCompression(t *testing.T) {
	*flagCompression = "lzma"
	defer func() { *flagCompression = "" }()

	if err := applyFlags(Default()); err == nil {
		t.Error("expected error for unknown compression")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Convert.Backend = BackendSketch
	cfg.Convert.WatchDirs = []string{"scenes"}
	cfg.Import.TangentsMode = abc.TangentsNone
	cfg.Export.Compression = nvc.CompressionZstd

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Convert.Backend != BackendSketch || loaded.Import.TangentsMode != abc.TangentsNone {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if loaded.Export != cfg.Export {
		t.Errorf("expected export %+v, got %+v", cfg.Export, loaded.Export)
	}
}
