// Package query answers nearest-carpark questions against an in-memory
// consolidated snapshot.
package query

import (
	"context"
	"errors"
	"log/slog"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
	"github.com/parkscout/carpark-finder/internal/ranker"
)

// ErrNoSnapshot is returned when the service has no carpark data loaded.
var ErrNoSnapshot = errors.New("no carpark snapshot loaded")

// NearestRanker is the two-stage search the service delegates to.
type NearestRanker interface {
	Nearest(ctx context.Context, carparks []domain.ConsolidatedCarpark, dest domain.Destination, n int) ([]domain.RankedCarpark, error)
}

// Service resolves a free-text address and ranks the loaded carparks by
// walking distance from it.
type Service struct {
	geocoder domain.Geocoder
	ranker   NearestRanker
	carparks []domain.ConsolidatedCarpark
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService consolidates the raw snapshot rows into one entry per
// carpark and keeps the result for the service's lifetime.
func NewService(geocoder domain.Geocoder, r NearestRanker, records []domain.CarparkRecord, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		geocoder: geocoder,
		ranker:   r,
		carparks: domain.Consolidate(records),
		logger:   logger,
		metrics:  metrics,
	}
}

// Carparks returns the consolidated table.
func (s *Service) Carparks() []domain.ConsolidatedCarpark {
	return s.carparks
}

// Nearest geocodes the address and returns up to n carparks sorted
// ascending by walking distance. The resolved destination is returned
// alongside so callers can show what the address mapped to.
func (s *Service) Nearest(ctx context.Context, address string, n int) (domain.Destination, []domain.RankedCarpark, error) {
	if len(s.carparks) == 0 {
		s.metrics.NearestQueries.WithLabelValues("error").Inc()
		return domain.Destination{Address: address}, nil, ErrNoSnapshot
	}

	dest := domain.ResolveDestination(ctx, address, s.geocoder, s.logger)
	if !dest.Resolved() {
		s.metrics.NearestQueries.WithLabelValues("unresolved").Inc()
		return dest, nil, ranker.ErrUnresolvedDestination
	}

	ranked, err := s.ranker.Nearest(ctx, s.carparks, dest, n)
	if err != nil {
		s.metrics.NearestQueries.WithLabelValues("error").Inc()
		return dest, nil, err
	}

	s.metrics.NearestQueries.WithLabelValues("success").Inc()
	s.logger.Info("nearest query answered", "address", address, "results", len(ranked))
	return dest, ranked, nil
}

// CheckReadiness reports whether the service can answer queries.
func (s *Service) CheckReadiness(_ context.Context) error {
	if len(s.carparks) == 0 {
		return ErrNoSnapshot
	}
	return nil
}
