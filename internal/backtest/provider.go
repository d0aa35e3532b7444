package backtest

import (
	"context"
	"time"
)

// Snapshot maps instrument identifiers to the value of one data field as of a
// single date. It contains only instruments whose most recent known
// observation is at or before that date: point-in-time discipline is the
// provider's responsibility, never the engine's.
type Snapshot map[string]float64

// SnapshotProvider is the data-fetch collaborator contract. Implementations
// are storage-agnostic; the engine only sees this interface.
type SnapshotProvider interface {
	// Fetch returns the latest-known value per instrument as of date.
	// Returns a data-unavailable error for an unrecognized field or when no
	// instrument has any observation at or before date.
	Fetch(ctx context.Context, field DataField, date time.Time) (Snapshot, error)

	// DataRange returns the earliest and latest observation dates for field.
	DataRange(ctx context.Context, field DataField) (min, max time.Time, err error)
}
