package domain

import "context"

// GeocodingResult is the first match returned by a geocoding provider.
// A zero-value result means the provider found nothing.
type GeocodingResult struct {
	Latitude  float64
	Longitude float64
	Address   string
}

// Geocoder turns a free-text query into coordinates.
type Geocoder interface {
	// Geocode returns the first result for the query, or a zero-value
	// result with a nil error when the provider has no match.
	Geocode(ctx context.Context, query string) (GeocodingResult, error)
}

// RoutePlanner computes walking routes between two coordinates.
type RoutePlanner interface {
	// Walk returns the walking route from start to end, or (nil, nil)
	// when the provider reports no walkable route.
	Walk(ctx context.Context, start, end Coordinate) (*WalkingRoute, error)
}
