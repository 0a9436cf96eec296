package onemap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/parkscout/carpark-finder/internal/domain"
	"github.com/parkscout/carpark-finder/internal/observability"
)

// Client implements domain.Geocoder and domain.RoutePlanner against the
// OneMap search and routing APIs.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a OneMap API client.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// searchResponse is the OneMap elastic search envelope. Coordinates are
// string-encoded floats.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	SearchVal string `json:"SEARCHVAL"`
	Latitude  string `json:"LATITUDE"`
	Longitude string `json:"LONGITUDE"`
}

// Geocode returns the first search result for the query, or a zero-value
// result with a nil error when OneMap has no match. Single attempt, no
// retries.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("geocode auth: %w", err)
	}

	params := url.Values{
		"searchVal":      {query},
		"returnGeom":     {"Y"},
		"getAddrDetails": {"Y"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/common/elastic/search?"+params.Encode(), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create geocode request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.GeocodingResult{}, fmt.Errorf("geocode API error: status %d: %s", resp.StatusCode, body)
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(search.Results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodingResult{}, nil
	}

	first := search.Results[0]
	lat, err := strconv.ParseFloat(first.Latitude, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("parse geocode latitude %q: %w", first.Latitude, err)
	}
	lon, err := strconv.ParseFloat(first.Longitude, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("parse geocode longitude %q: %w", first.Longitude, err)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.GeocodingResult{Latitude: lat, Longitude: lon, Address: first.SearchVal}, nil
}

// routeResponse carries the routing summary; its absence means OneMap
// found no walkable route.
type routeResponse struct {
	RouteSummary *routeSummary `json:"route_summary"`
}

type routeSummary struct {
	TotalDistance float64 `json:"total_distance"` // meters
	TotalTime     float64 `json:"total_time"`     // seconds
}

// Walk returns the walking route between two coordinates, or (nil, nil)
// when OneMap reports no route.
func (c *Client) Walk(ctx context.Context, start, end domain.Coordinate) (*domain.WalkingRoute, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("route auth: %w", err)
	}

	params := url.Values{
		"start":     {fmt.Sprintf("%f,%f", start.Latitude, start.Longitude)},
		"end":       {fmt.Sprintf("%f,%f", end.Latitude, end.Longitude)},
		"routeType": {"walk"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/public/routingsvc/route?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create route request: %w", err)
	}
	// The routing endpoint takes the bare token, unlike the search API.
	req.Header.Set("Authorization", token)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RouteAPIDuration.Observe(time.Since(requestStart).Seconds())
	if err != nil {
		c.metrics.RouteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.RouteRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("route API error: status %d: %s", resp.StatusCode, body)
	}

	var route routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		c.metrics.RouteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode route response: %w", err)
	}

	if route.RouteSummary == nil {
		c.metrics.RouteRequests.WithLabelValues("no_route").Inc()
		return nil, nil
	}

	c.metrics.RouteRequests.WithLabelValues("success").Inc()
	return &domain.WalkingRoute{
		DistanceKm:      route.RouteSummary.TotalDistance / 1000,
		DurationMinutes: route.RouteSummary.TotalTime / 60,
	}, nil
}
