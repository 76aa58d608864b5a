package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/vrkit/internal/config"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "vrsim:", err)
		os.Exit(2)
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "vrsim:", err)
		os.Exit(1)
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Feed.Enabled {
		if err = app.Feed.Start(gctx); err != nil {
			logger.Fatal("failed to start feed", log.Error(err))
		}
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return app.Feed.Stop(shutdownCtx)
		})
	}

	g.Go(func() error {
		// the feed goes down with the session
		defer cancelRun()
		report, err := app.Server.Run(gctx)
		if errors.Is(err, context.Canceled) {
			logger.Info("session interrupted", log.Uint64("frames", report.Frames))
			err = nil
		}
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		_, err = fmt.Println(string(out))
		return err
	})

	if err = g.Wait(); err != nil {
		logger.Fatal("vrsim failed", log.Error(err))
	}
}
