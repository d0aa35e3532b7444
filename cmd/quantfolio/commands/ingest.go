package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/marketdata"
	"github.com/quantfolio/quantfolio/pkg/config"
	"github.com/quantfolio/quantfolio/pkg/database"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// ingestCmd represents the ingest command.
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Load observation CSV files into Postgres",
	Long: `Load a "date,instrument,value" CSV file into the observation store.

Creates the schema when missing and upserts on conflict, so re-ingesting
a corrected file is safe.

Example:
  go run ./cmd/quantfolio ingest --field market_capitalization data/market_capitalization.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestField string

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestField, "field", "", "data field the file belongs to (required)")
	ingestCmd.MarkFlagRequired("field")
}

func runIngest(cmd *cobra.Command, args []string) error {
	field := backtest.DataField(ingestField)
	if !field.Known() {
		return fmt.Errorf("unknown field %q, must be one of %v", ingestField, backtest.KnownDataFields())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for ingest")
	}

	log := logger.New(cfg)
	ctx := cmd.Context()

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	provider := marketdata.NewPostgresProvider(db.Pool, log)
	if err := provider.EnsureSchema(ctx); err != nil {
		return err
	}

	instruments, dates, values, err := readObservationCSV(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	count, err := provider.InsertObservations(ctx, field, instruments, dates, values)
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d observations into %s\n", count, field)
	return nil
}

func readObservationCSV(path string) ([]string, []time.Time, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3

	// Header row.
	if _, err := r.Read(); err != nil {
		return nil, nil, nil, fmt.Errorf("read header: %w", err)
	}

	var (
		instruments []string
		dates       []time.Time
		values      []float64
	)
	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		row++

		date, err := time.Parse(backtest.DateLayout, record[0])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("row %d: invalid date %q", row, record[0])
		}
		value, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("row %d: invalid value %q", row, record[2])
		}

		dates = append(dates, date)
		instruments = append(instruments, record[1])
		values = append(values, value)
	}

	return instruments, dates, values, nil
}
