package main

import (
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/Faultbox/vertexcache/pkg/nvc"
)

func (a *app) cmdInfo(args []string) error {
	if len(args) < 1 {
		return usage("info <file.nvc>")
	}

	dec, err := nvc.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer dec.Close()

	fmt.Fprintf(a.out, "Cache:       %s\n", args[0])
	fmt.Fprintf(a.out, "Compression: %s\n", dec.Compression())
	fmt.Fprintf(a.out, "Frames:      %d\n", dec.FrameCount())
	fmt.Fprintf(a.out, "Seek window: %d\n", dec.SeekWindow())
	if n := dec.FrameCount(); n > 0 {
		fmt.Fprintf(a.out, "Time range:  %.4f - %.4f\n", dec.FrameTime(0), dec.FrameTime(n-1))
	}

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Attributes:")
	stored := dec.StoredFormats()
	for i, d := range dec.Descs() {
		fmt.Fprintf(a.out, "  %-12s %-10s stored as %s\n", d.Semantic, d.Format, stored[i])
	}

	if constants := dec.Constants(); len(constants) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Meshes:")
		for i, c := range constants {
			fmt.Fprintf(a.out, "  %3d %s\n", i, c)
		}
	}
	return nil
}

func (a *app) cmdFrames(args []string) error {
	fs := flag.NewFlagSet("frames", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N frames (0 = all)")
	at := fs.String("t", "", "Show only the frame played at this time")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usage("frames [-n N] [-t time] <file.nvc>")
	}

	dec, err := nvc.OpenFile(fs.Arg(0))
	if err != nil {
		return err
	}
	defer dec.Close()

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FRAME\tTIME\tVERTICES\tINDICES\tMESHES\tSUBMESHES")
	row := func(i int, t float32, f nvc.Frame) {
		fmt.Fprintf(tw, "%d\t%.4f\t%d\t%d\t%d\t%d\n", i, t, f.VertexCount, len(f.Indices), len(f.Meshes), len(f.Submeshes))
	}

	if *at != "" {
		t, err := strconv.ParseFloat(*at, 32)
		if err != nil {
			return fmt.Errorf("time: %w", err)
		}
		p := nvc.NewPlayer(dec, dec.SeekWindow())
		if err := p.SetTime(float32(t)); err != nil {
			return err
		}
		i, ft, f, err := p.Current()
		if err != nil {
			return err
		}
		row(i, ft, f)
		return tw.Flush()
	}

	window := dec.SeekWindow()
	for i := 0; i < dec.FrameCount(); i++ {
		if *limit > 0 && i >= *limit {
			break
		}
		if i%window == 0 {
			if err := dec.Prefetch(i, window); err != nil {
				return err
			}
		}
		f, err := dec.Frame(i)
		if err != nil {
			return err
		}
		row(i, dec.FrameTime(i), f)
		dec.Drop(i)
	}
	return tw.Flush()
}
