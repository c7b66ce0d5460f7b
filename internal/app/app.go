// Package app provides the top-level application lifecycle for the
// arbitrage decision core. It wires the pipeline (detector, finder, risk
// manager, cache, scheduler), attaches the Redis snapshot feed and
// opportunity publisher, and runs everything until the context is
// cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ming198921/taoli5.1-sub000/internal/config"
)

// drainTimeout bounds how long shutdown waits for in-flight batches.
const drainTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger,
// and a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and blocks until the context is cancelled.
// On shutdown it stops the feed, drains the scheduler, and closes every
// resource in reverse order.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Int("batch_size", a.cfg.Engine.BatchSize),
		slog.Int("workers", a.cfg.Engine.Workers),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Feed.Run(ctx)
	})

	if a.cfg.Metrics.Enabled {
		a.serveMetrics(ctx, g, deps)
	}

	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if closeErr := deps.Scheduler.Close(drainCtx); closeErr != nil {
		a.logger.Warn("scheduler drain incomplete", slog.String("error", closeErr.Error()))
	}

	snap := deps.Stats.Snapshot()
	a.logger.Info("final pipeline statistics",
		slog.Int64("ticks_processed", snap.TicksProcessed),
		slog.Int64("batches_folded", snap.BatchesFolded),
		slog.Int64("opportunities_found", snap.OpportunitiesFound),
		slog.Int64("opportunities_approved", snap.OpportunitiesApproved),
	)

	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// serveMetrics exposes the Prometheus registry over HTTP for the
// lifetime of the group context.
func (a *App) serveMetrics(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              a.cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		a.logger.InfoContext(ctx, "metrics server listening",
			slog.String("addr", a.cfg.Metrics.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app: metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// Close tears down all resources in reverse registration order. Safe to
// call multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
