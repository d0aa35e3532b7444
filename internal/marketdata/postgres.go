package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// Schema is the observation store DDL. Applied by the ingest command.
const Schema = `
CREATE TABLE IF NOT EXISTS market_observations (
    field         TEXT             NOT NULL,
    instrument_id TEXT             NOT NULL,
    observed_on   DATE             NOT NULL,
    value         DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (field, instrument_id, observed_on)
);
CREATE INDEX IF NOT EXISTS idx_market_observations_lookup
    ON market_observations (field, observed_on);
`

// PostgresProvider serves point-in-time snapshots from the
// market_observations table.
type PostgresProvider struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresProvider creates a provider over an existing pool.
func NewPostgresProvider(pool *pgxpool.Pool, log *logger.Logger) *PostgresProvider {
	return &PostgresProvider{pool: pool, logger: log}
}

// Fetch returns the latest observation at or before date per instrument.
// DISTINCT ON keeps exactly the most recent row per instrument, so rows
// observed after date can never leak into the snapshot.
func (p *PostgresProvider) Fetch(ctx context.Context, field backtest.DataField, date time.Time) (backtest.Snapshot, error) {
	if !field.Known() {
		return nil, backtest.NewDataUnavailableError(date, "unrecognized field %q", field)
	}

	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT ON (instrument_id) instrument_id, value
		FROM market_observations
		WHERE field = $1
		  AND observed_on <= $2
		ORDER BY instrument_id, observed_on DESC
	`, string(field), day(date))
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(backtest.Snapshot)
	for rows.Next() {
		var instrument string
		var value float64
		if err := rows.Scan(&instrument, &value); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snapshot[instrument] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot rows: %w", err)
	}

	if len(snapshot) == 0 {
		return nil, backtest.NewDataUnavailableError(date,
			"no %s data at or before %s", field, day(date).Format(backtest.DateLayout))
	}

	return snapshot, nil
}

// DataRange returns the earliest and latest observation dates for field.
func (p *PostgresProvider) DataRange(ctx context.Context, field backtest.DataField) (time.Time, time.Time, error) {
	if !field.Known() {
		return time.Time{}, time.Time{}, backtest.NewDataUnavailableError(time.Time{}, "unrecognized field %q", field)
	}

	var min, max *time.Time
	err := p.pool.QueryRow(ctx, `
		SELECT MIN(observed_on), MAX(observed_on)
		FROM market_observations
		WHERE field = $1
	`, string(field)).Scan(&min, &max)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("query data range: %w", err)
	}

	if min == nil || max == nil {
		return time.Time{}, time.Time{}, backtest.NewDataUnavailableError(time.Time{}, "no data available for %s", field)
	}

	return day(*min), day(*max), nil
}

// EnsureSchema applies the observation store DDL.
func (p *PostgresProvider) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InsertObservations bulk-loads observations for one field via COPY.
// Existing rows for the same (field, instrument, date) are replaced.
func (p *PostgresProvider) InsertObservations(ctx context.Context, field backtest.DataField, instruments []string, dates []time.Time, values []float64) (int64, error) {
	if len(instruments) != len(dates) || len(dates) != len(values) {
		return 0, fmt.Errorf("mismatched observation slices: %d/%d/%d", len(instruments), len(dates), len(values))
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback(ctx)

	// Stage into a temp table so re-ingesting a file upserts cleanly.
	if _, err := tx.Exec(ctx, `
		CREATE TEMP TABLE staged_observations
		(LIKE market_observations INCLUDING ALL) ON COMMIT DROP
	`); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"staged_observations"},
		[]string{"field", "instrument_id", "observed_on", "value"},
		pgx.CopyFromSlice(len(instruments), func(i int) ([]interface{}, error) {
			return []interface{}{string(field), instruments[i], day(dates[i]), values[i]}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy observations: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO market_observations (field, instrument_id, observed_on, value)
		SELECT field, instrument_id, observed_on, value FROM staged_observations
		ON CONFLICT (field, instrument_id, observed_on)
		DO UPDATE SET value = EXCLUDED.value
	`); err != nil {
		return 0, fmt.Errorf("merge observations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"field": field,
		"rows":  copied,
	}).Info("Ingested observations")

	return copied, nil
}

var _ backtest.SnapshotProvider = (*PostgresProvider)(nil)
