// Package ingest orchestrates the availability refresh: one full
// paginated fetch fanned out to the configured snapshot sinks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
)

// Fetcher retrieves the full cleaned carpark table.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.CarparkRecord, error)
}

// SnapshotWriter persists one full snapshot. Implementations: CSV store,
// Postgres store, Kafka publisher.
type SnapshotWriter interface {
	Name() string
	WriteSnapshot(ctx context.Context, records []domain.CarparkRecord) error
}

// Ingestor runs the fetch-and-persist cycle.
type Ingestor struct {
	fetcher Fetcher
	writers []SnapshotWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Ingestor writing to the given sinks in order.
func New(fetcher Fetcher, writers []SnapshotWriter, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		fetcher: fetcher,
		writers: writers,
		logger:  logger,
		metrics: metrics,
	}
}

// Run fetches the full table and writes it to every sink. A fetch failure
// aborts the run with nothing written. A sink failure does not stop the
// remaining sinks; all sink errors are joined into the returned error.
// The cleaned table is returned either way so callers can keep working
// with it in memory.
func (i *Ingestor) Run(ctx context.Context) ([]domain.CarparkRecord, error) {
	records, err := i.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch carpark availability: %w", err)
	}

	i.metrics.SnapshotRecords.Set(float64(len(records)))
	if len(records) == 0 {
		i.logger.Warn("feed returned no records, nothing to save")
		return records, nil
	}

	var errs []error
	for _, w := range i.writers {
		if err := w.WriteSnapshot(ctx, records); err != nil {
			i.metrics.SnapshotWrites.WithLabelValues(w.Name(), "error").Inc()
			i.logger.Error("snapshot write failed", "sink", w.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		i.metrics.SnapshotWrites.WithLabelValues(w.Name(), "success").Inc()
	}

	return records, errors.Join(errs...)
}
