package commands

import (
	"context"
	"fmt"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/internal/marketdata"
	"github.com/quantfolio/quantfolio/pkg/config"
	"github.com/quantfolio/quantfolio/pkg/database"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// buildProvider constructs the snapshot provider selected by configuration.
// The returned cleanup func releases any underlying resources.
func buildProvider(ctx context.Context, cfg *config.Config, log *logger.Logger) (backtest.SnapshotProvider, func(), error) {
	switch cfg.Data.Provider {
	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
		return marketdata.NewPostgresProvider(db.Pool, log), db.Close, nil

	case "local":
		provider, err := marketdata.NewLocalProvider(cfg.Data.DataDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("load local data: %w", err)
		}
		return provider, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data provider: %s", cfg.Data.Provider)
	}
}
