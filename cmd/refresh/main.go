package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/riskibarqy/fpl-pulse/internal/app"
	"github.com/riskibarqy/fpl-pulse/internal/config"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
	"github.com/riskibarqy/fpl-pulse/internal/usecase"
)

func main() {
	weeks := flag.Int("weeks", 3, "rolling window size in gameweeks")
	clearFirst := flag.Bool("clear", false, "clear the cache before refreshing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	zapLogger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(zapLogger)
	defer func() { _ = zapLogger.Sync() }()

	services, err := app.NewServices(cfg, zapLogger)
	if err != nil {
		logger.Error("build services", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *clearFirst {
		removed, err := services.Data.ClearCache(ctx)
		if err != nil {
			logger.Error("clear cache", "error", err)
			os.Exit(1)
		}
		logger.Info("cache cleared", "entries_removed", removed)
	}

	// Warm the broad entity caches in parallel before the per-player sweep.
	prefetch := pool.New().WithErrors().WithContext(ctx)
	prefetch.Go(func(ctx context.Context) error {
		_, stale, err := services.Data.Bootstrap(ctx)
		if err == nil {
			logger.Info("bootstrap prefetched", "stale", stale)
		}
		return err
	})
	prefetch.Go(func(ctx context.Context) error {
		_, stale, err := services.Data.Fixtures(ctx)
		if err == nil {
			logger.Info("fixtures prefetched", "stale", stale)
		}
		return err
	})
	if err := prefetch.Wait(); err != nil {
		logger.Error("prefetch failed", "error", err)
		os.Exit(1)
	}

	started := time.Now()
	table, err := services.Rolling.Compute(ctx, *weeks, func(p usecase.Progress) {
		if p.Processed%50 == 0 || p.Processed == p.Total {
			logger.Info("refresh progress",
				"processed", p.Processed,
				"total", p.Total,
				"with_data", p.WithData,
				"last_player", p.LastPlayer,
				"elapsed", p.Elapsed.Round(time.Second).String(),
				"remaining", p.Remaining.Round(time.Second).String(),
			)
		}
	})
	if err != nil {
		logger.Error("refresh failed", "weeks", *weeks, "error", err)
		os.Exit(1)
	}

	logger.Info("refresh complete",
		"weeks", table.Weeks,
		"gameweek", table.Gameweek,
		"records", len(table.Records),
		"stale", table.Stale,
		"cache_entries", services.Data.CacheEntryCount(),
		"duration", time.Since(started).Round(time.Second).String(),
	)
}
