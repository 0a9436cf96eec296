package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) Geocode(_ context.Context, _ string) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveDestination_Success(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{Latitude: 1.28394, Longitude: 103.85153, Address: "RAFFLES PLACE"}}

	dest := ResolveDestination(context.Background(), "Raffles Place", geo, discardLogger())
	assert.True(t, dest.Resolved())
	assert.Equal(t, "Raffles Place", dest.Address)
	assert.Equal(t, 1.28394, dest.Coordinate.Latitude)
}

func TestResolveDestination_TransportErrorIsUnresolved(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("connection refused")}

	dest := ResolveDestination(context.Background(), "Raffles Place", geo, discardLogger())
	assert.False(t, dest.Resolved())
	assert.Equal(t, 1, geo.calls, "never retries")
}

func TestResolveDestination_NoMatchIsUnresolved(t *testing.T) {
	geo := &mockGeocoder{}

	dest := ResolveDestination(context.Background(), "zzzz", geo, discardLogger())
	assert.False(t, dest.Resolved())
}

func TestResolveDestination_EmptyAddressSkipsCall(t *testing.T) {
	geo := &mockGeocoder{}

	dest := ResolveDestination(context.Background(), "", geo, discardLogger())
	assert.False(t, dest.Resolved())
	assert.Zero(t, geo.calls)
}
