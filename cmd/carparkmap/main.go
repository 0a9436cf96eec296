// Command carparkmap renders the full-island availability map from the
// latest snapshot.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkscout/carpark-finder/internal/adapter/datamall"
	"github.com/parkscout/carpark-finder/internal/config"
	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
	"github.com/parkscout/carpark-finder/internal/render"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := storage.NewCSVStore(cfg.SnapshotPath, logger)

	var records []domain.CarparkRecord
	if store.Exists() {
		records, err = store.LoadSnapshot()
	} else {
		logger.Info("no snapshot found, fetching feed", "path", cfg.SnapshotPath)
		if err = cfg.RequireAccountKey(); err == nil {
			fetcher := datamall.NewClient(cfg.DataMallURL, cfg.DataMallAccountKey, cfg.FeedPageSize, cfg.FeedTimeout, logger, metrics)
			if records, err = fetcher.FetchAll(ctx); err == nil {
				if saveErr := store.WriteSnapshot(ctx, records); saveErr != nil {
					logger.Warn("snapshot save failed, continuing in memory", "error", saveErr)
				}
			}
		}
	}
	if err != nil {
		logger.Error("snapshot unavailable", "error", err)
		os.Exit(1)
	}

	carparks := domain.Consolidate(records)
	if err := render.NewMapWriter(logger).WriteCityMap(cfg.CityMapPath, carparks); err != nil {
		logger.Error("map render failed", "error", err)
		os.Exit(1)
	}

	logger.Info("city map written", "path", cfg.CityMapPath, "carparks", len(carparks))
}
