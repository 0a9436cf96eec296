package onemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenSource returning a fixed token.
type staticTokens struct{ token string }

func (s staticTokens) Token(_ context.Context) (string, error) { return s.token, nil }

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, staticTokens{token: "test-token"}, 5*time.Second, discardLogger(), observability.NewMetricsForTesting())
}

func TestGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/common/elastic/search", r.URL.Path)
		assert.Equal(t, "RAFFLES PLACE", r.URL.Query().Get("searchVal"))
		assert.Equal(t, "Y", r.URL.Query().Get("returnGeom"))
		assert.Equal(t, "Y", r.URL.Query().Get("getAddrDetails"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"found":1,"results":[
			{"SEARCHVAL":"RAFFLES PLACE MRT STATION","LATITUDE":"1.28394","LONGITUDE":"103.85153"},
			{"SEARCHVAL":"RAFFLES PLACE PARK","LATITUDE":"1.28430","LONGITUDE":"103.85160"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result, err := c.Geocode(context.Background(), "RAFFLES PLACE")
	require.NoError(t, err)

	assert.Equal(t, 1.28394, result.Latitude)
	assert.Equal(t, 103.85153, result.Longitude)
	assert.Equal(t, "RAFFLES PLACE MRT STATION", result.Address)
}

func TestGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"found":0,"results":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	result, err := c.Geocode(context.Background(), "NOWHERE AT ALL")
	require.NoError(t, err)
	assert.Zero(t, result.Latitude)
	assert.Zero(t, result.Longitude)
	assert.Empty(t, result.Address)
}

func TestGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Geocode(context.Background(), "RAFFLES PLACE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestWalk_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/public/routingsvc/route", r.URL.Path)
		assert.Equal(t, "walk", r.URL.Query().Get("routeType"))
		assert.Equal(t, "1.283940,103.851530", r.URL.Query().Get("start"))
		assert.Equal(t, "1.290000,103.850000", r.URL.Query().Get("end"))
		// The routing endpoint takes the raw token, no Bearer prefix.
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"route_summary":{"total_distance":850,"total_time":612}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	route, err := c.Walk(context.Background(),
		domain.Coordinate{Latitude: 1.28394, Longitude: 103.85153},
		domain.Coordinate{Latitude: 1.29, Longitude: 103.85},
	)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.InDelta(t, 0.85, route.DistanceKm, 1e-9)
	assert.InDelta(t, 10.2, route.DurationMinutes, 1e-9)
}

func TestWalk_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status_message":"no route found"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	route, err := c.Walk(context.Background(), domain.Coordinate{Latitude: 1.3, Longitude: 103.8}, domain.Coordinate{Latitude: 1.4, Longitude: 103.9})
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestWalk_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Walk(context.Background(), domain.Coordinate{Latitude: 1.3, Longitude: 103.8}, domain.Coordinate{Latitude: 1.4, Longitude: 103.9})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
