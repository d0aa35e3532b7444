package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/quantfolio/quantfolio/pkg/logger"
)

// Assembler composes selection and weighting for a single rebalance date.
// Snapshots and portfolios it produces are transient: created and discarded
// within one date's processing step.
type Assembler struct {
	provider SnapshotProvider
	creation PortfolioCreation
	logger   *logger.Logger
}

// NewAssembler creates an assembler for one run's portfolio creation config.
func NewAssembler(provider SnapshotProvider, creation PortfolioCreation, log *logger.Logger) *Assembler {
	return &Assembler{
		provider: provider,
		creation: creation,
		logger:   log,
	}
}

// Assemble fetches the snapshot for its data field, selects, allocates, and
// returns the date's portfolio plus zero-or-one warning. A data-unavailable
// error from the provider is returned as-is for the orchestrator's fail-fast
// contract.
func (a *Assembler) Assemble(ctx context.Context, date time.Time) (Portfolio, string, error) {
	snapshot, err := a.provider.Fetch(ctx, a.creation.DataField, date)
	if err != nil {
		return nil, "", err
	}

	selected, underCapacity, err := SelectTopN(snapshot, a.creation.N)
	if err != nil {
		return nil, "", err
	}

	portfolio := AllocateEqual(selected)

	a.logger.WithFields(map[string]interface{}{
		"date":      date.Format(DateLayout),
		"selected":  len(selected),
		"requested": a.creation.N,
	}).Debug("Portfolio assembled")

	var warning string
	switch {
	case len(portfolio) == 0:
		warning = fmt.Sprintf("no instruments qualified on %s", date.Format(DateLayout))
	case underCapacity:
		warning = fmt.Sprintf(
			"only %d of %d requested instruments available on %s",
			len(selected), a.creation.N, date.Format(DateLayout),
		)
	}

	return portfolio, warning, nil
}
