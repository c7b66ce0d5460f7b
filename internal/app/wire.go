package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ming198921/taoli5.1-sub000/internal/anomaly"
	busredis "github.com/ming198921/taoli5.1-sub000/internal/bus/redis"
	"github.com/ming198921/taoli5.1-sub000/internal/cache"
	"github.com/ming198921/taoli5.1-sub000/internal/config"
	"github.com/ming198921/taoli5.1-sub000/internal/engine"
	"github.com/ming198921/taoli5.1-sub000/internal/instrument"
	"github.com/ming198921/taoli5.1-sub000/internal/obs"
	"github.com/ming198921/taoli5.1-sub000/internal/opportunity"
	"github.com/ming198921/taoli5.1-sub000/internal/risk"
)

// Dependencies bundles everything the running application needs: the
// pipeline, its egress surfaces, and the bus adapter.
type Dependencies struct {
	Scheduler *engine.Scheduler
	Cache     *cache.OpportunityCache
	Stats     *cache.Stats
	Account   *risk.AccountState
	Feed      *busredis.Feed
	Registry  *prometheus.Registry
}

// Wire constructs all concrete components from the configuration and
// returns them together with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	classifier := instrument.NewClassifier(
		cfg.Detector.MemeBases,
		cfg.Detector.DeFiBases,
		cfg.Detector.MajorBases,
	)

	registry := instrument.NewRegistry()
	registry.SetIntermediates(cfg.Finder.Intermediates)
	for _, ex := range cfg.Registry.Exchanges {
		for _, symbol := range ex.Symbols {
			registry.Add(ex.Name, symbol)
		}
	}

	detector := anomaly.NewDetector(anomaly.Config{
		HistoryCapacity:           cfg.Detector.HistoryCapacity,
		MemeLiquidityThreshold:    cfg.Detector.MemeLiquidityThreshold,
		DeFiLiquidityThreshold:    cfg.Detector.DeFiLiquidityThreshold,
		DefaultLiquidityThreshold: cfg.Detector.DefaultLiquidityThreshold,
	}, classifier, logger)

	finder := opportunity.NewFinder(opportunity.Config{
		MinTriangularProfit:    cfg.Finder.MinTriangularProfit,
		MinInterExchangeDiff:   cfg.Finder.MinInterExchangeDiff,
		FeeRate:                cfg.Finder.FeeRate,
		InterExchangeRetention: cfg.Finder.InterExchangeRetention,
		DefaultSize:            cfg.Finder.DefaultSize,
		MaxSize:                cfg.Finder.MaxSize,
	}, registry, logger)

	account := risk.NewAccountState()
	riskMgr := risk.NewManager(risk.Config{
		MaxSinglePosition:      cfg.Risk.MaxSinglePosition,
		MaxTotalPositions:      cfg.Risk.MaxTotalPositions,
		MaxDailyLoss:           cfg.Risk.MaxDailyLoss,
		MaxDrawdown:            cfg.Risk.MaxDrawdown,
		CrashAdverseMove:       cfg.Risk.CrashAdverseMove,
		CrashPenalty:           cfg.Risk.CrashPenalty,
		LiquidityCrisisPenalty: cfg.Risk.LiquidityCrisisPenalty,
	}, account, classifier, logger)

	oppCache := cache.NewOpportunityCache(cfg.Cache.Capacity)
	stats := cache.NewStats()

	promRegistry := prometheus.NewRegistry()
	var metrics *obs.Metrics
	if cfg.Metrics.Enabled {
		metrics = obs.NewMetrics(promRegistry)
	}

	scheduler := engine.NewScheduler(engine.Config{
		BatchSize:     cfg.Engine.BatchSize,
		Workers:       cfg.Engine.Workers,
		BatchDeadline: time.Duration(cfg.Engine.BatchDeadlineMs) * time.Millisecond,
	}, detector, finder, riskMgr, oppCache, stats, metrics, logger)

	redisClient, err := busredis.New(ctx, busredis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("app: connect redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	publisher := busredis.NewPublisher(redisClient, logger)
	scheduler.SetPublisher(publisher.Hook(ctx))

	feed := busredis.NewFeed(redisClient, scheduler, logger)

	return &Dependencies{
		Scheduler: scheduler,
		Cache:     oppCache,
		Stats:     stats,
		Account:   account,
		Feed:      feed,
		Registry:  promRegistry,
	}, cleanup, nil
}
