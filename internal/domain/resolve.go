package domain

import (
	"context"
	"log/slog"
)

// ResolveDestination geocodes a free-text address with a single attempt.
// Transport errors and empty result sets both yield the unresolved
// sentinel (zero coordinates); callers must treat that as terminal for any
// dependent computation.
func ResolveDestination(ctx context.Context, address string, geocoder Geocoder, logger *slog.Logger) Destination {
	dest := Destination{Address: address}
	if address == "" {
		return dest
	}

	result, err := geocoder.Geocode(ctx, address)
	if err != nil {
		logger.Warn("geocoding failed", "address", address, "error", err)
		return dest
	}
	if result.Latitude == 0 && result.Longitude == 0 {
		logger.Warn("no geocoding results", "address", address)
		return dest
	}

	dest.Coordinate = Coordinate{Latitude: result.Latitude, Longitude: result.Longitude}
	return dest
}
