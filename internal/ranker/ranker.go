// Package ranker implements the two-stage nearest-carpark search: a fast
// geodesic pre-filter followed by walking-distance refinement against the
// routing service.
package ranker

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/ratelimit"
)

// ErrUnresolvedDestination is returned when the destination's coordinates
// are missing; ranking cannot proceed without them.
var ErrUnresolvedDestination = errors.New("destination is not resolved")

// Ranker finds the N carparks nearest to a destination by walking
// distance. Routing calls are sequential behind a minimum-interval gate
// because the routing service is rate-limited and each call costs a full
// network round-trip; that is also why stage 1 exists at all.
type Ranker struct {
	planner  domain.RoutePlanner
	gate     *ratelimit.Gate
	poolSize int
	logger   *slog.Logger
}

// New creates a Ranker. poolSize is the stage-1 candidate pool size K; it
// must be at least the largest result count callers will request for
// stage 2 to be meaningful.
func New(planner domain.RoutePlanner, gate *ratelimit.Gate, poolSize int, logger *slog.Logger) *Ranker {
	return &Ranker{
		planner:  planner,
		gate:     gate,
		poolSize: poolSize,
		logger:   logger,
	}
}

// candidate pairs a carpark with its stage-1 geodesic distance.
type candidate struct {
	carpark  domain.ConsolidatedCarpark
	distance domain.CandidateDistance
}

// Nearest returns up to n carparks sorted ascending by walking distance.
//
// Stage 1 ranks every carpark by geodesic distance and truncates to the
// candidate pool size (clamped to the table size). Straight-line order is
// an approximation of walking order, so the pool deliberately
// over-samples relative to n; stage 2's walking-distance sort is the
// authoritative final order.
//
// Stage 2 routes each candidate sequentially through the rate gate.
// Candidates without a walkable route, and candidates whose routing call
// fails, are dropped without aborting the batch; fewer than n results is
// not an error.
func (r *Ranker) Nearest(ctx context.Context, carparks []domain.ConsolidatedCarpark, dest domain.Destination, n int) ([]domain.RankedCarpark, error) {
	if !dest.Resolved() {
		return nil, ErrUnresolvedDestination
	}

	candidates := r.shortlist(carparks, dest)
	r.logger.Info("stage 1 complete", "carparks", len(carparks), "candidates", len(candidates))

	ranked := make([]domain.RankedCarpark, 0, len(candidates))
	for i, cand := range candidates {
		if err := r.gate.Wait(ctx); err != nil {
			return nil, err
		}

		route, err := r.planner.Walk(ctx, dest.Coordinate, cand.carpark.Coordinate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("routing failed, dropping candidate",
				"carpark_id", cand.carpark.CarParkID,
				"candidate", i+1,
				"error", err,
			)
			continue
		}
		if route == nil {
			r.logger.Debug("no walkable route, dropping candidate", "carpark_id", cand.carpark.CarParkID)
			continue
		}

		ranked = append(ranked, domain.RankedCarpark{
			ConsolidatedCarpark: cand.carpark,
			GeodesicKm:          cand.distance.GeodesicKm,
			Walking:             *route,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Walking.DistanceKm < ranked[j].Walking.DistanceKm
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	r.logger.Info("stage 2 complete", "routed", len(ranked), "requested", n)
	return ranked, nil
}

// shortlist computes geodesic distances, stable-sorts ascending, and
// truncates to the pool size.
func (r *Ranker) shortlist(carparks []domain.ConsolidatedCarpark, dest domain.Destination) []candidate {
	candidates := make([]candidate, len(carparks))
	for i, cp := range carparks {
		candidates[i] = candidate{
			carpark: cp,
			distance: domain.CandidateDistance{
				CarParkID:  cp.CarParkID,
				GeodesicKm: domain.GeodesicKm(dest.Coordinate, cp.Coordinate),
			},
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance.GeodesicKm < candidates[j].distance.GeodesicKm
	})

	if len(candidates) > r.poolSize {
		candidates = candidates[:r.poolSize]
	}
	return candidates
}
