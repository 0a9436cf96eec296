package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/parkscout/carpark-finder/internal/domain"
)

// PostgresStore mirrors the snapshot into a carpark_availability table.
// Each run is a full refresh, matching the CSV store's semantics.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(connStr string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to postgres")
	return &PostgresStore{db: db, logger: logger}, nil
}

// Name identifies the sink in logs and metrics.
func (s *PostgresStore) Name() string { return "postgres" }

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS carpark_availability (
		carpark_id     VARCHAR(20)  NOT NULL,
		area           TEXT,
		development    TEXT,
		location       TEXT,
		available_lots INTEGER      NOT NULL DEFAULT 0,
		lot_type       VARCHAR(4)   NOT NULL,
		agency         VARCHAR(20),
		latitude       DOUBLE PRECISION NOT NULL,
		longitude      DOUBLE PRECISION NOT NULL,
		fetched_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		PRIMARY KEY (carpark_id, lot_type)
	);

	CREATE INDEX IF NOT EXISTS idx_carpark_availability_agency ON carpark_availability (agency);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create carpark_availability table: %w", err)
	}
	return nil
}

// WriteSnapshot replaces the table contents in one transaction.
func (s *PostgresStore) WriteSnapshot(ctx context.Context, records []domain.CarparkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM carpark_availability"); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO carpark_availability
			(carpark_id, area, development, location, available_lots, lot_type, agency, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (carpark_id, lot_type) DO UPDATE SET
			available_lots = EXCLUDED.available_lots,
			fetched_at     = NOW()`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			rec.CarParkID, rec.Area, rec.Development, rec.Location,
			rec.AvailableLots, string(rec.LotType), rec.Agency,
			rec.Latitude, rec.Longitude,
		); err != nil {
			return fmt.Errorf("insert snapshot row for %s/%s: %w", rec.CarParkID, rec.LotType, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.logger.Info("snapshot mirrored to postgres", "records", len(records))
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
