package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/vertexcache/internal/convert"
	"github.com/Faultbox/vertexcache/internal/logger"
	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

func (a *app) cmdNodes(args []string) error {
	fs := flag.NewFlagSet("nodes", flag.ExitOnError)
	kind := fs.String("type", "", "Only list nodes of this type")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("nodes [-type mesh] <scene>")
	}

	ctx, err := a.openScene(fs.Arg(0))
	if err != nil {
		return err
	}
	defer ctx.Close()

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTYPE\tSAMPLES\tPATH")
	for _, n := range ctx.Nodes() {
		if *kind != "" && !strings.EqualFold(n.Type.String(), *kind) {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", n.Index, n.Type, n.SampleCount, n.Path)
	}
	return tw.Flush()
}

func (a *app) cmdSamples(args []string) error {
	fs := flag.NewFlagSet("samples", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usage("samples <scene> <node index>")
	}
	index, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("node index: %w", err)
	}

	ctx, err := a.openScene(fs.Arg(0))
	if err != nil {
		return err
	}
	defer ctx.Close()

	node, err := ctx.Node(index)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s, %d samples)\n", node.Path, node.Type, node.SampleCount)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	switch node.Type {
	case abc.NodeXform:
		samples, err := ctx.XformSamples(index)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "TIME\tVISIBLE\tTRANSLATION\tROTATION\tSCALE")
		for _, s := range samples {
			fmt.Fprintf(tw, "%.4f\t%t\t%.4g %.4g %.4g\t%.4g %.4g %.4g %.4g\t%.4g %.4g %.4g\n",
				s.Time, s.Visible,
				s.Translation.X, s.Translation.Y, s.Translation.Z,
				s.Rotation.X, s.Rotation.Y, s.Rotation.Z, s.Rotation.W,
				s.Scale.X, s.Scale.Y, s.Scale.Z)
		}
	case abc.NodeCamera:
		samples, err := ctx.CameraSamples(index)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "TIME\tVISIBLE\tNEAR\tFAR\tFOV\tASPECT\tFOCUS\tFOCAL\tAPERTURE")
		for _, s := range samples {
			fmt.Fprintf(tw, "%.4f\t%t\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
				s.Time, s.Visible, s.NearClippingPlane, s.FarClippingPlane,
				s.FieldOfView, s.AspectRatio, s.FocusDistance, s.FocalLength, s.Aperture)
		}
	default:
		return fmt.Errorf("%w: %s nodes have no readable samples", abc.ErrNodeType, node.Type)
	}
	return tw.Flush()
}

// exportFlags registers the export option overrides shared by export and
// convert.
func (a *app) exportFlags(fs *flag.FlagSet) func() error {
	compression := fs.String("compression", "", "Compression: none, quantize or zstd")
	block := fs.Int("block", 0, "Frames per seek window")
	return func() error {
		if *compression != "" {
			kind, err := nvc.ParseCompressionType(*compression)
			if err != nil {
				return err
			}
			a.cfg.Export.Compression = kind
		}
		if *block > 0 {
			a.cfg.Export.BlockSize = int32(*block)
		}
		return a.cfg.Export.Validate()
	}
}

func (a *app) converter() (*convert.Converter, error) {
	backend, err := a.newBackend()
	if err != nil {
		return nil, err
	}
	return &convert.Converter{
		Backend: backend,
		Import:  a.cfg.Import,
		Export:  a.cfg.Export,
		OutDir:  a.cfg.Convert.OutputDir,
		Log:     logger.Named("convert"),
	}, nil
}

func (a *app) cmdExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	apply := a.exportFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("export [-compression kind] [-block n] <scene> [out.nvc]")
	}
	if err := apply(); err != nil {
		return err
	}

	src := fs.Arg(0)
	out := (&convert.Converter{OutDir: a.cfg.Convert.OutputDir}).OutputPath(src)
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}

	ctx, err := a.openScene(src)
	if err != nil {
		return err
	}
	defer ctx.Close()

	if err := ctx.ExportNVC(out, a.cfg.Export); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported: %s (%s, block %d)\n", out, a.cfg.Export.Compression, a.cfg.Export.BlockSize)
	return nil
}

func (a *app) cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	apply := a.exportFlags(fs)
	workers := fs.Int("j", 0, "Concurrent conversions (0 = config value)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("convert [-j n] [-compression kind] <scene>...")
	}
	if err := apply(); err != nil {
		return err
	}
	if *workers <= 0 {
		*workers = a.cfg.Convert.Workers
	}

	conv, err := a.converter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := conv.ConvertAll(ctx, fs.Args(), *workers)
	for _, res := range results {
		if res.Frames > 0 {
			fmt.Fprintf(a.out, "%s -> %s (%d frames, %d bytes, %s)\n", res.Source, res.Output, res.Frames, res.Bytes, res.Duration.Round(time.Millisecond))
		}
	}
	if failed := len(multierr.Errors(err)); failed > 0 && failed < len(results) {
		logger.Warn("Some scenes failed", zap.Int("failed", failed), zap.Int("total", len(results)))
	}
	return err
}
