package config

import (
	"flag"

	"github.com/Faultbox/vertexcache/pkg/nvc"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagBackend     = flag.String("backend", "", "Scene backend: native or sketch")
	flagOutput      = flag.String("out", "", "Output directory for converted caches")
	flagCompression = flag.String("compression", "", "Cache compression: none, quantize or zstd")
	flagLogFile     = flag.String("log-file", "", "Also log to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagBackend != "" {
		cfg.Convert.Backend = *flagBackend
	}
	if *flagOutput != "" {
		cfg.Convert.OutputDir = *flagOutput
	}
	if *flagCompression != "" {
		kind, err := nvc.ParseCompressionType(*flagCompression)
		if err != nil {
			return err
		}
		cfg.Export.Compression = kind
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	return nil
}
