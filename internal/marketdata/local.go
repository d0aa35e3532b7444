package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// NewLocalProvider builds a MemoryProvider from per-field CSV files in
// dataDir. Each recognized field loads from "<dataDir>/<field>.csv" when the
// file exists; missing files just leave the field empty.
//
// CSV layout: a "date,instrument,value" header followed by one observation
// per row, dates in ISO "YYYY-MM-DD" form.
func NewLocalProvider(dataDir string, log *logger.Logger) (*MemoryProvider, error) {
	provider := NewMemoryProvider()

	for _, field := range backtest.KnownDataFields() {
		path := filepath.Join(dataDir, string(field)+".csv")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		count, err := loadCSV(provider, field, path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}

		log.WithFields(map[string]interface{}{
			"field":        field,
			"path":         path,
			"observations": count,
		}).Info("Loaded local data file")
	}

	return provider, nil
}

func loadCSV(provider *MemoryProvider, field backtest.DataField, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	// Header row.
	if _, err := r.Read(); err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	count := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		date, err := time.Parse(backtest.DateLayout, record[0])
		if err != nil {
			return count, fmt.Errorf("row %d: invalid date %q", count+2, record[0])
		}
		value, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return count, fmt.Errorf("row %d: invalid value %q", count+2, record[2])
		}

		provider.Add(field, record[1], date, value)
		count++
	}

	return count, nil
}
