// nvctool inspects Alembic scenes and converts them to NVC geometry caches.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/vertexcache/internal/config"
	"github.com/Faultbox/vertexcache/internal/logger"
	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/abc/native"
	"github.com/Faultbox/vertexcache/pkg/abc/sketch"
)

var errUsage = errors.New("usage")

// app carries what every command needs.
type app struct {
	cfg *config.Config
	out io.Writer
}

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, os.Stderr, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	args := config.Args()
	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	a := &app{cfg: cfg, out: os.Stdout}
	if err := a.run(args[0], args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("Command failed", zap.String("command", args[0]), zap.Error(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}

func (a *app) run(command string, args []string) error {
	switch command {
	case "nodes", "ls":
		return a.cmdNodes(args)
	case "samples":
		return a.cmdSamples(args)
	case "export":
		return a.cmdExport(args)
	case "convert":
		return a.cmdConvert(args)
	case "info":
		return a.cmdInfo(args)
	case "frames":
		return a.cmdFrames(args)
	case "watch":
		return a.cmdWatch(args)
	case "config":
		return a.cmdConfig(args)
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `nvctool - Alembic scene and NVC geometry cache utility

Usage:
  nvctool [-config file] [-debug] [-backend native|sketch] <command> [options]

Commands:
  nodes <scene>                      List scene nodes
  samples <scene> <node>             Dump transform or camera samples
  export <scene> [out.nvc]           Export mesh animation to a cache
  convert <scene>...                 Export several scenes concurrently
  info <file.nvc>                    Show cache header and layout
  frames <file.nvc>                  List cache frames
  watch [dir...]                     Convert scenes as they appear
  config                             Print or save the effective config

Examples:
  nvctool nodes shot.abc
  nvctool -backend sketch export quad.abc.yaml -compression zstd
  nvctool frames -t 1.5 shot.nvc
  nvctool -out caches watch -metrics :9100 scenes/`)
}

func usage(format string) error {
	fmt.Fprintln(os.Stderr, "Usage: nvctool "+format)
	return errUsage
}

// newBackend returns the importer selected by the convert.backend setting.
func (a *app) newBackend() (abc.Backend, error) {
	switch a.cfg.Convert.Backend {
	case config.BackendSketch:
		return sketch.New(logger.Log), nil
	case config.BackendNative:
		if err := native.Available(); err != nil {
			return nil, fmt.Errorf("%w; use -backend sketch for scene sketches", err)
		}
		return native.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", a.cfg.Convert.Backend)
	}
}

// openScene opens path on a new import context. The caller closes it.
func (a *app) openScene(path string) (*abc.Context, error) {
	backend, err := a.newBackend()
	if err != nil {
		return nil, err
	}
	ctx, err := abc.NewContext(backend)
	if err != nil {
		return nil, err
	}
	if err := ctx.Open(path, a.cfg.Import); err != nil {
		ctx.Close()
		return nil, err
	}
	logger.Debug("Opened scene", zap.String("path", path), zap.Int("nodes", ctx.NodeCount()))
	return ctx, nil
}
