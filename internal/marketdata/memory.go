package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/quantfolio/quantfolio/internal/backtest"
)

// Observation is a single dated value for one instrument.
type Observation struct {
	Date  time.Time
	Value float64
}

// MemoryProvider is an in-process snapshot provider. It backs unit tests and
// the local CSV data directory. Load everything first, then read: Fetch and
// DataRange are safe for concurrent use once loading is done.
type MemoryProvider struct {
	// series[field][instrument] is sorted by ascending date.
	series map[backtest.DataField]map[string][]Observation
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		series: make(map[backtest.DataField]map[string][]Observation),
	}
}

// Add records an observation, keeping the instrument's series date-sorted.
func (p *MemoryProvider) Add(field backtest.DataField, instrument string, date time.Time, value float64) {
	byInstrument, ok := p.series[field]
	if !ok {
		byInstrument = make(map[string][]Observation)
		p.series[field] = byInstrument
	}

	obs := Observation{Date: day(date), Value: value}
	series := byInstrument[instrument]
	i := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(obs.Date)
	})
	series = append(series, Observation{})
	copy(series[i+1:], series[i:])
	series[i] = obs
	byInstrument[instrument] = series
}

// Fetch returns the latest observation at or before date per instrument.
func (p *MemoryProvider) Fetch(ctx context.Context, field backtest.DataField, date time.Time) (backtest.Snapshot, error) {
	if !field.Known() {
		return nil, backtest.NewDataUnavailableError(date, "unrecognized field %q", field)
	}

	target := day(date)
	snapshot := make(backtest.Snapshot)

	for instrument, series := range p.series[field] {
		// Index of the first observation after target.
		i := sort.Search(len(series), func(i int) bool {
			return series[i].Date.After(target)
		})
		if i == 0 {
			continue // nothing known at or before target
		}
		snapshot[instrument] = series[i-1].Value
	}

	if len(snapshot) == 0 {
		return nil, backtest.NewDataUnavailableError(date,
			"no %s data at or before %s", field, target.Format(backtest.DateLayout))
	}

	return snapshot, nil
}

// DataRange returns the earliest and latest observation dates for field.
func (p *MemoryProvider) DataRange(ctx context.Context, field backtest.DataField) (time.Time, time.Time, error) {
	if !field.Known() {
		return time.Time{}, time.Time{}, backtest.NewDataUnavailableError(time.Time{}, "unrecognized field %q", field)
	}

	var min, max time.Time
	for _, series := range p.series[field] {
		if len(series) == 0 {
			continue
		}
		first, last := series[0].Date, series[len(series)-1].Date
		if min.IsZero() || first.Before(min) {
			min = first
		}
		if max.IsZero() || last.After(max) {
			max = last
		}
	}

	if min.IsZero() {
		return time.Time{}, time.Time{}, backtest.NewDataUnavailableError(time.Time{}, "no data available for %s", field)
	}

	return min, max, nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var _ backtest.SnapshotProvider = (*MemoryProvider)(nil)
