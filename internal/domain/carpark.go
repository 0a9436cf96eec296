package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// LotType is the single-character vehicle category code used by the feed.
type LotType string

const (
	LotTypeCar          LotType = "C"
	LotTypeHeavyVehicle LotType = "H"
	LotTypeMotorcycle   LotType = "Y"
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether the coordinate is the unresolved sentinel.
func (c Coordinate) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// CarparkRecord is one feed row: a single lot type at a single carpark.
// CarParkID is not unique across rows; a carpark with several lot types
// produces one record per type.
type CarparkRecord struct {
	CarParkID     string  `json:"CarParkID"`
	Area          string  `json:"Area"`
	Development   string  `json:"Development"`
	Location      string  `json:"Location"` // raw "lat lon" compound string
	AvailableLots int     `json:"AvailableLots"`
	LotType       LotType `json:"LotType"`
	Agency        string  `json:"Agency"`

	// Derived from Location during cleaning.
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate returns the record's derived coordinate pair.
func (r CarparkRecord) Coordinate() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// ParseLocation splits a compound "lat lon" location string into a
// coordinate pair. Both fields must parse as floats.
func ParseLocation(location string) (Coordinate, error) {
	fields := strings.Fields(location)
	if len(fields) != 2 {
		return Coordinate{}, fmt.Errorf("location %q: want 2 fields, got %d", location, len(fields))
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("location %q: latitude: %w", location, err)
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("location %q: longitude: %w", location, err)
	}
	return Coordinate{Latitude: lat, Longitude: lon}, nil
}

// LotAvailability pairs a lot type with its available-lot count.
type LotAvailability struct {
	LotType       LotType `json:"lot_type"`
	AvailableLots int     `json:"available_lots"`
}

// ConsolidatedCarpark is one logical carpark: all lot-type rows sharing a
// CarParkID merged into a single record. Lots preserves first-seen order;
// the representative Development and coordinates come from the first row
// seen for the ID.
type ConsolidatedCarpark struct {
	CarParkID   string            `json:"carpark_id"`
	Development string            `json:"development"`
	Coordinate  Coordinate        `json:"coordinate"`
	Lots        []LotAvailability `json:"lots"`
}

// Destination is a free-text address with its resolved coordinates. A zero
// coordinate pair means resolution failed; dependent computation must not
// proceed.
type Destination struct {
	Address    string     `json:"address"`
	Coordinate Coordinate `json:"coordinate"`
}

// Resolved reports whether geocoding produced usable coordinates.
func (d Destination) Resolved() bool {
	return !d.Coordinate.IsZero()
}

// CandidateDistance pairs a carpark with its straight-line distance to a
// destination. Ephemeral: only used to rank and truncate the stage-1 pool.
type CandidateDistance struct {
	CarParkID  string
	GeodesicKm float64
}

// WalkingRoute is the routing service's answer for one candidate.
type WalkingRoute struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// RankedCarpark is one entry of the final query output: a consolidated
// carpark joined with its geodesic pre-filter distance and walking route,
// sorted ascending by walking distance.
type RankedCarpark struct {
	ConsolidatedCarpark
	GeodesicKm float64      `json:"geodesic_km"`
	Walking    WalkingRoute `json:"walking"`
}
