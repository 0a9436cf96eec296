package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/query"
	"github.com/parkscout/carpark-finder/internal/ranker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockService struct {
	dest     domain.Destination
	ranked   []domain.RankedCarpark
	err      error
	readyErr error
	gotN     int
}

func (m *mockService) Nearest(_ context.Context, address string, n int) (domain.Destination, []domain.RankedCarpark, error) {
	m.gotN = n
	if m.dest.Address == "" {
		m.dest.Address = address
	}
	return m.dest, m.ranked, m.err
}

func (m *mockService) CheckReadiness(_ context.Context) error {
	return m.readyErr
}

func newTestServer(svc *mockService) *Server {
	return NewServer(":0", svc, 10, discardLogger())
}

func TestHandleNearest_Success(t *testing.T) {
	svc := &mockService{
		dest: domain.Destination{Address: "313 Orchard Road", Coordinate: domain.Coordinate{Latitude: 1.3006, Longitude: 103.8368}},
		ranked: []domain.RankedCarpark{
			{
				ConsolidatedCarpark: domain.ConsolidatedCarpark{CarParkID: "HE12", Development: "Heeren Shops"},
				Walking:             domain.WalkingRoute{DistanceKm: 0.85, DurationMinutes: 10.2},
			},
		},
	}
	srv := newTestServer(svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest?address=313+Orchard+Road&n=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.gotN)

	var resp nearestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Carparks, 1)
	assert.Equal(t, "HE12", resp.Carparks[0].CarParkID)
	assert.Equal(t, "313 Orchard Road", resp.Destination.Address)
}

func TestHandleNearest_DefaultCount(t *testing.T) {
	svc := &mockService{dest: domain.Destination{Coordinate: domain.Coordinate{Latitude: 1.3, Longitude: 103.8}}}
	srv := newTestServer(svc)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest?address=somewhere", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, svc.gotN)
	assert.Contains(t, rec.Body.String(), `"carparks":[]`)
}

func TestHandleNearest_MissingAddress(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNearest_BadCount(t *testing.T) {
	srv := newTestServer(&mockService{})

	for _, raw := range []string{"abc", "0", "-2"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest?address=x&n="+raw, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "n=%s", raw)
	}
}

func TestHandleNearest_UnresolvedAddress(t *testing.T) {
	srv := newTestServer(&mockService{err: ranker.ErrUnresolvedDestination})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest?address=gibberish", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleNearest_NoSnapshot(t *testing.T) {
	srv := newTestServer(&mockService{err: query.ErrNoSnapshot})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest?address=x", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleNearest_InternalError(t *testing.T) {
	srv := newTestServer(&mockService{err: errors.New("routing outage")})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nearest?address=x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "routing outage", "internal detail stays out of the response")
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHandleReady(t *testing.T) {
	srv := newTestServer(&mockService{})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	srv = newTestServer(&mockService{readyErr: query.ErrNoSnapshot})
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")
}
