package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeodesicKm_KnownDistance(t *testing.T) {
	// Raffles Place to Orchard Road is roughly 3.6 km straight-line.
	raffles := Coordinate{Latitude: 1.28394, Longitude: 103.85153}
	orchard := Coordinate{Latitude: 1.30460, Longitude: 103.83180}

	d := GeodesicKm(raffles, orchard)
	assert.InDelta(t, 3.1, d, 0.3)
}

func TestGeodesicKm_ZeroForSamePoint(t *testing.T) {
	p := Coordinate{Latitude: 1.3521, Longitude: 103.8198}
	assert.Zero(t, GeodesicKm(p, p))
}

func TestGeodesicKm_Symmetric(t *testing.T) {
	a := Coordinate{Latitude: 1.30, Longitude: 103.80}
	b := Coordinate{Latitude: 1.40, Longitude: 103.90}
	assert.InDelta(t, GeodesicKm(a, b), GeodesicKm(b, a), 1e-12)
}

func TestParseLocation(t *testing.T) {
	coord, err := ParseLocation("1.3521 103.8198")
	require.NoError(t, err)
	assert.Equal(t, 1.3521, coord.Latitude)
	assert.Equal(t, 103.8198, coord.Longitude)
}

func TestParseLocation_Malformed(t *testing.T) {
	for _, location := range []string{"invalid", "", "1.3521", "1.3521 abc", "abc 103.8", "1 2 3"} {
		_, err := ParseLocation(location)
		assert.Error(t, err, "location=%q", location)
	}
}
