// Command fetch pulls the full LTA DataMall carpark availability feed and
// writes it to the configured snapshot sinks.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkscout/carpark-finder/internal/adapter/datamall"
	kafkaadapter "github.com/parkscout/carpark-finder/internal/adapter/kafka"
	"github.com/parkscout/carpark-finder/internal/config"
	"github.com/parkscout/carpark-finder/internal/ingest"
	"github.com/parkscout/carpark-finder/internal/observability"
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

	if err := cfg.RequireAccountKey(); err != nil {
		logger.Error("missing feed credential", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := datamall.NewClient(cfg.DataMallURL, cfg.DataMallAccountKey, cfg.FeedPageSize, cfg.FeedTimeout, logger, metrics)

	writers := []ingest.SnapshotWriter{storage.NewCSVStore(cfg.SnapshotPath, logger)}

	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("postgres schema setup failed", "error", err)
			os.Exit(1)
		}
		writers = append(writers, pg)
	}

	if cfg.KafkaEnabled {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		writers = append(writers, publisher)
	}

	records, err := ingest.New(fetcher, writers, logger, metrics).Run(ctx)
	if err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingest complete", "records", len(records), "sinks", len(writers))
}
