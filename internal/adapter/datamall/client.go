// Package datamall implements the LTA DataMall carpark availability feed
// client.
package datamall

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

// Client fetches the full carpark availability table from the paginated
// DataMall feed.
type Client struct {
	accountKey string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client. accountKey is the static DataMall
// credential forwarded on every request.
func NewClient(baseURL, accountKey string, pageSize int, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		accountKey: accountKey,
		baseURL:    baseURL,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// feedResponse is the OData envelope around a page of records.
type feedResponse struct {
	Value []domain.CarparkRecord `json:"value"`
}

// FetchAll retrieves every record from the feed with an increasing $skip
// cursor, stopping on an empty page or a page shorter than the page size.
// Any transport error aborts the whole fetch; partial accumulation is
// discarded. The returned table is cleaned: each Location string is split
// into latitude/longitude and rows that fail to parse are dropped.
func (c *Client) FetchAll(ctx context.Context) ([]domain.CarparkRecord, error) {
	start := time.Now()
	var records []domain.CarparkRecord

	for skip := 0; ; skip += c.pageSize {
		page, err := c.fetchPage(ctx, skip)
		if err != nil {
			return nil, fmt.Errorf("fetch page at skip %d: %w", skip, err)
		}

		c.metrics.FeedPages.Inc()
		c.metrics.FeedRecords.Add(float64(len(page)))
		records = append(records, page...)
		c.logger.Info("fetched feed page", "skip", skip, "page_records", len(page), "total_records", len(records))

		if len(page) == 0 || len(page) < c.pageSize {
			break
		}
	}

	cleaned := c.clean(records)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	c.logger.Info("feed fetch complete", "raw_records", len(records), "cleaned_records", len(cleaned))
	return cleaned, nil
}

func (c *Client) fetchPage(ctx context.Context, skip int) ([]domain.CarparkRecord, error) {
	params := url.Values{"$skip": {strconv.Itoa(skip)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("AccountKey", c.accountKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, body)
	}

	var page feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}
	return page.Value, nil
}

// clean derives latitude/longitude from each record's compound Location
// string. Rows that fail to parse are dropped and counted, never fatal.
func (c *Client) clean(records []domain.CarparkRecord) []domain.CarparkRecord {
	cleaned := make([]domain.CarparkRecord, 0, len(records))
	for _, rec := range records {
		coord, err := domain.ParseLocation(rec.Location)
		if err != nil {
			c.metrics.RowsDropped.Inc()
			c.logger.Warn("dropping row with unparseable location", "carpark_id", rec.CarParkID, "error", err)
			continue
		}
		rec.Latitude = coord.Latitude
		rec.Longitude = coord.Longitude
		cleaned = append(cleaned, rec)
	}
	return cleaned
}
