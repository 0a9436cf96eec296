// Package storage persists the cleaned carpark snapshot. The CSV store is
// the canonical one; Postgres is optional.
package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parkscout/carpark-finder/internal/domain"
)

var csvHeader = []string{
	"CarParkID", "Area", "Development", "Location",
	"AvailableLots", "LotType", "Agency", "latitude", "longitude",
}

// CSVStore reads and writes the carpark snapshot as a CSV file.
type CSVStore struct {
	path   string
	logger *slog.Logger
}

// NewCSVStore creates a store at the given file path.
func NewCSVStore(path string, logger *slog.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (s *CSVStore) Name() string { return "csv" }

// WriteSnapshot replaces the snapshot file with the given records.
func (s *CSVStore) WriteSnapshot(_ context.Context, records []domain.CarparkRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.CarParkID,
			rec.Area,
			rec.Development,
			rec.Location,
			strconv.Itoa(rec.AvailableLots),
			string(rec.LotType),
			rec.Agency,
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write snapshot row for %s: %w", rec.CarParkID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	s.logger.Info("snapshot written", "path", s.path, "records", len(records))
	return nil
}

// LoadSnapshot reads the snapshot back. Rows with unparseable numeric
// fields are skipped, mirroring the fetch-time cleaning policy.
func (s *CSVStore) LoadSnapshot() ([]domain.CarparkRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]domain.CarparkRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			s.logger.Warn("skipping snapshot row with wrong field count", "row", i+2, "fields", len(row))
			continue
		}
		lots, err := strconv.Atoi(row[4])
		if err != nil {
			s.logger.Warn("skipping snapshot row with bad lot count", "row", i+2, "error", err)
			continue
		}
		lat, err := strconv.ParseFloat(row[7], 64)
		if err != nil {
			s.logger.Warn("skipping snapshot row with bad latitude", "row", i+2, "error", err)
			continue
		}
		lon, err := strconv.ParseFloat(row[8], 64)
		if err != nil {
			s.logger.Warn("skipping snapshot row with bad longitude", "row", i+2, "error", err)
			continue
		}

		records = append(records, domain.CarparkRecord{
			CarParkID:     row[0],
			Area:          row[1],
			Development:   row[2],
			Location:      row[3],
			AvailableLots: lots,
			LotType:       domain.LotType(row[5]),
			Agency:        row[6],
			Latitude:      lat,
			Longitude:     lon,
		})
	}

	s.logger.Info("snapshot loaded", "path", s.path, "records", len(records))
	return records, nil
}

// Exists reports whether a snapshot file is present.
func (s *CSVStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
