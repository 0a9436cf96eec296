// Command nearest geocodes a destination address and prints the carparks
// closest to it by walking distance, writing an interactive result map
// alongside.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/parkscout/carpark-finder/internal/adapter/datamall"
	"github.com/parkscout/carpark-finder/internal/adapter/onemap"
	"github.com/parkscout/carpark-finder/internal/config"
	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
	"github.com/parkscout/carpark-finder/internal/query"
	"github.com/parkscout/carpark-finder/internal/ranker"
	"github.com/parkscout/carpark-finder/internal/ratelimit"
	"github.com/parkscout/carpark-finder/internal/render"
	"github.com/parkscout/carpark-finder/internal/storage"
)

func main() {
	address := flag.String("address", "", "destination address (prompted for when omitted)")
	count := flag.Int("n", 0, "number of carparks to return (default from config)")
	flag.Parse()

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

	n := cfg.DefaultResultCount
	if *count > 0 {
		n = *count
	}
	if n > cfg.CandidatePoolSize {
		logger.Error("requested count exceeds candidate pool size",
			"requested", n, "pool_size", cfg.CandidatePoolSize)
		os.Exit(1)
	}

	dest := strings.TrimSpace(*address)
	if dest == "" {
		dest = promptAddress()
	}
	if dest == "" {
		fmt.Fprintln(os.Stderr, "no address given")
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

	resolved, ranked, err := service.Nearest(ctx, dest, n)
	if err != nil {
		logger.Error("nearest query failed", "address", dest, "error", err)
		os.Exit(1)
	}
	if len(ranked) == 0 {
		fmt.Printf("No walkable carparks found near %q.\n", dest)
		return
	}

	printRanked(resolved, ranked)

	if err := render.NewMapWriter(logger).WriteNearestMap(cfg.NearestMapPath, resolved, ranked); err != nil {
		logger.Error("map render failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nMap written to %s\n", cfg.NearestMapPath)
}

// promptAddress reads one line from stdin when no -address flag is given.
func promptAddress() string {
	fmt.Print("Enter destination address: ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
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

func printRanked(dest domain.Destination, ranked []domain.RankedCarpark) {
	fmt.Printf("Nearest carparks to %q (%.5f, %.5f):\n\n",
		dest.Address, dest.Coordinate.Latitude, dest.Coordinate.Longitude)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCARPARK\tWALK\tTIME\tLOTS")
	for i, rc := range ranked {
		name := rc.Development
		if name == "" {
			name = rc.CarParkID
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f km\t%.0f min\t%d\n",
			i+1, name, rc.Walking.DistanceKm, rc.Walking.DurationMinutes, rc.PrimaryAvailability())
	}
	w.Flush()
}
