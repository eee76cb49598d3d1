package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/vertexcache/internal/convert"
	"github.com/Faultbox/vertexcache/internal/logger"
)

func (a *app) cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	metricsAddr := fs.String("metrics", a.cfg.Convert.MetricsAddr, "Serve Prometheus metrics on this address")
	debounce := fs.Duration("debounce", a.cfg.Convert.Debounce, "Quiet period before a changed scene is converted")
	fs.Parse(args)

	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = a.cfg.Convert.WatchDirs
	}
	if len(dirs) == 0 {
		return usage("watch [-metrics addr] [-debounce d] <dir>...")
	}

	conv, err := a.converter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		conv.Metrics = convert.NewMetrics(reg)

		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		logger.Info("Serving metrics", zap.String("addr", *metricsAddr))
	}

	w, err := convert.NewWatcher(conv, *debounce)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.OnResult = func(res convert.Result, err error) {
		if err == nil {
			fmt.Fprintf(a.out, "%s -> %s (%d frames)\n", res.Source, res.Output, res.Frames)
		}
	}

	return w.Run(ctx)
}

func (a *app) cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	save := fs.Bool("save", false, "Save to the user config directory")
	out := fs.String("o", "", "Save to this path")
	fs.Parse(args)

	switch {
	case *out != "":
		if err := a.cfg.SaveTo(*out); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved: %s\n", *out)
	case *save:
		if err := a.cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Saved to user config directory")
	default:
		data, err := yaml.Marshal(a.cfg)
		if err != nil {
			return err
		}
		a.out.Write(data)
	}
	return nil
}
