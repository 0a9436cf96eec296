// Command serve exposes the nearest-carpark query over HTTP, loading the
// availability snapshot at startup.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkscout/carpark-finder/internal/adapter/datamall"
	"github.com/parkscout/carpark-finder/internal/adapter/httpserver"
	"github.com/parkscout/carpark-finder/internal/adapter/onemap"
	"github.com/parkscout/carpark-finder/internal/config"
	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
	"github.com/parkscout/carpark-finder/internal/query"
	"github.com/parkscout/carpark-finder/internal/ranker"
	"github.com/parkscout/carpark-finder/internal/ratelimit"
	"github.com/parkscout/carpark-finder/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := cfg.RequireOneMapCredentials(); err != nil {
		logger.Error("missing onemap credentials", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	records, err := loadSnapshot(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("snapshot unavailable", "error", err)
		os.Exit(1)
	}

	tokens := onemap.NewTokenManager(cfg.OneMapBaseURL, cfg.OneMapEmail, cfg.OneMapPassword, cfg.TokenCachePath, cfg.OneMapTimeout, logger)
	client := onemap.NewClient(cfg.OneMapBaseURL, tokens, cfg.OneMapTimeout, logger, metrics)
	gate := ratelimit.NewGate(cfg.RouteCallInterval)
	r := ranker.New(client, gate, cfg.CandidatePoolSize, logger)
	service := query.NewService(client, r, records, logger, metrics)

	srv := httpserver.NewServer(cfg.HTTPAddr, service, cfg.DefaultResultCount, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("serving nearest-carpark queries",
		"addr", cfg.HTTPAddr, "carparks", len(service.Carparks()))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// loadSnapshot reads the CSV snapshot, fetching a fresh one from the feed
// when no snapshot exists yet.
func loadSnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) ([]domain.CarparkRecord, error) {
	store := storage.NewCSVStore(cfg.SnapshotPath, logger)
	if store.Exists() {
		return store.LoadSnapshot()
	}

	logger.Info("no snapshot found, fetching feed", "path", cfg.SnapshotPath)
	if err := cfg.RequireAccountKey(); err != nil {
		return nil, err
	}

	fetcher := datamall.NewClient(cfg.DataMallURL, cfg.DataMallAccountKey, cfg.FeedPageSize, cfg.FeedTimeout, logger, metrics)
	records, err := fetcher.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.WriteSnapshot(ctx, records); err != nil {
		logger.Warn("snapshot save failed, continuing in memory", "error", err)
	}
	return records, nil
}
