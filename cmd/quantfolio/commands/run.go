package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/strategyfile"
	"github.com/quantfolio/quantfolio/pkg/config"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest",
	Long: `Run one backtest and print the resulting weight schedule as JSON.

The strategy comes either from a YAML file (--strategy) or from flags.

Example:
  go run ./cmd/quantfolio run --initial-date 2024-01-01 --n 10
  go run ./cmd/quantfolio run --strategy strategies/top10_mcap.yaml`,
	RunE: runBacktest,
}

var (
	runStrategyFile string
	runInitialDate  string
	runN            int
	runDataField    string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runStrategyFile, "strategy", "", "YAML strategy file")
	runCmd.Flags().StringVar(&runInitialDate, "initial-date", "", "start date (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&runN, "n", 10, "number of instruments to select")
	runCmd.Flags().StringVar(&runDataField, "field", string(backtest.FieldMarketCapitalization), "ranking data field")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	strategy, err := resolveStrategy()
	if err != nil {
		return err
	}

	hash, err := strategyfile.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy: %w", err)
	}
	log.WithField("config_hash", hash).Info("Strategy resolved")

	ctx := cmd.Context()

	provider, cleanup, err := buildProvider(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	orchestrator := backtest.NewOrchestrator(provider, log)

	result, err := orchestrator.Run(ctx, *strategy)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// resolveStrategy builds the backtest config from the strategy file when
// given, falling back to flags.
func resolveStrategy() (*backtest.Config, error) {
	if runStrategyFile != "" {
		strategy, _, err := strategyfile.Load(runStrategyFile)
		if err != nil {
			return nil, fmt.Errorf("load strategy file: %w", err)
		}
		return strategy, nil
	}

	if runInitialDate == "" {
		return nil, fmt.Errorf("either --strategy or --initial-date is required")
	}

	initial, err := backtest.ParseDate(runInitialDate)
	if err != nil {
		return nil, err
	}

	strategy := &backtest.Config{
		CalendarRule: backtest.CalendarRule{
			RuleType:    backtest.RuleQuarterly,
			InitialDate: initial,
		},
		PortfolioCreation: backtest.PortfolioCreation{
			FilterType: backtest.FilterTopN,
			N:          runN,
			DataField:  backtest.DataField(runDataField),
		},
		WeightingScheme: backtest.WeightingScheme{
			WeightingType: backtest.WeightingEqual,
		},
	}

	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	return strategy, nil
}
