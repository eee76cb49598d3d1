// Package convert turns scenes into NVC geometry caches, one at a time
// or by watching directories for new scenes.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/vertexcache/pkg/abc"
	"github.com/Faultbox/vertexcache/pkg/abc/sketch"
	"github.com/Faultbox/vertexcache/pkg/nvc"
)

// Converter exports scenes read through Backend to caches.
type Converter struct {
	Backend abc.Backend
	Import  abc.ImportOptions
	Export  abc.ExportOptions
	OutDir  string // empty: next to the source scene
	Log     *zap.Logger
	Metrics *Metrics
}

// Result describes one finished conversion.
type Result struct {
	JobID    uuid.UUID
	Source   string
	Output   string
	Nodes    []abc.Node
	Frames   int
	Bytes    int64
	Duration time.Duration
}

// IsScene reports whether path names a scene the converter accepts.
func IsScene(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".abc") || strings.HasSuffix(lower, sketch.Extension)
}

// OutputPath returns the cache path for the scene at src.
func (c *Converter) OutputPath(src string) string {
	base := filepath.Base(src)
	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, sketch.Extension):
		base = base[:len(base)-len(sketch.Extension)]
	default:
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	dir := c.OutDir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, base+".nvc")
}

func (c *Converter) log() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Convert opens src on its own import context, exports its cache and
// reads the cache back to report the frame count. The context is
// released on every path.
func (c *Converter) Convert(ctx context.Context, src string) (res Result, err error) {
	res = Result{JobID: uuid.New(), Source: src, Output: c.OutputPath(src)}
	log := c.log().With(zap.Stringer("job", res.JobID), zap.String("src", src))

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		c.Metrics.observe(res, err)
		if err != nil {
			log.Warn("Conversion failed", zap.Error(err))
		}
	}()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	actx, err := abc.NewContext(c.Backend)
	if err != nil {
		return res, err
	}
	defer func() {
		err = multierr.Append(err, actx.Close())
	}()

	if err := actx.Open(src, c.Import); err != nil {
		return res, err
	}
	res.Nodes = actx.Nodes()
	log.Debug("Opened scene", zap.Int("nodes", len(res.Nodes)))

	if c.OutDir != "" {
		if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
			return res, fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := actx.ExportNVC(res.Output, c.Export); err != nil {
		return res, err
	}

	if err := res.inspect(); err != nil {
		return res, err
	}
	log.Info("Converted scene",
		zap.String("out", res.Output),
		zap.Int("frames", res.Frames),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

// inspect reads back the written cache.
func (r *Result) inspect() (err error) {
	info, err := os.Stat(r.Output)
	if err != nil {
		return err
	}
	r.Bytes = info.Size()

	dec, err := nvc.OpenFile(r.Output)
	if err != nil {
		return fmt.Errorf("reading back %s: %w", r.Output, err)
	}
	defer func() {
		err = multierr.Append(err, dec.Close())
	}()
	r.Frames = dec.FrameCount()
	return nil
}

// ConvertAll converts every scene using up to workers concurrent
// import contexts. Results are in source order; failures are combined.
func (c *Converter) ConvertAll(ctx context.Context, srcs []string, workers int) ([]Result, error) {
	workers = max(1, min(workers, len(srcs)))

	results := make([]Result, len(srcs))
	errs := make([]error, len(srcs))

	// Jobs never return an error to the group so one failed scene does
	// not stop the rest.
	var g errgroup.Group
	g.SetLimit(workers)
	for i, src := range srcs {
		g.Go(func() error {
			results[i], errs[i] = c.Convert(ctx, src)
			if errs[i] != nil {
				errs[i] = fmt.Errorf("%s: %w", src, errs[i])
			}
			return nil
		})
	}
	g.Wait()

	return results, multierr.Combine(errs...)
}
