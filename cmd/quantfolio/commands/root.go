package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "quantfolio",
	Short: "Quantfolio - backtest orchestration service",
	Long: `Quantfolio CLI

Deterministic portfolio backtesting over point-in-time market data:
generate rebalance dates, rank instruments, allocate weights, and
serve the whole thing over HTTP.

Examples:
  go run ./cmd/quantfolio api
  go run ./cmd/quantfolio run --initial-date 2024-01-01 --n 10
  go run ./cmd/quantfolio ingest --field prices data/prices.csv`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
