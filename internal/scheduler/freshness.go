package scheduler

import (
	"context"
	"time"

	"github.com/quantfolio/quantfolio/internal/backtest"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// staleAfter is how old the latest observation of a field may be before the
// freshness sweep flags it.
const staleAfter = 120 * 24 * time.Hour

// FreshnessJob sweeps every recognized data field and logs series that are
// missing or stale. Purely observational: results never feed back into runs.
type FreshnessJob struct {
	provider backtest.SnapshotProvider
	schedule string
	logger   *logger.Logger
}

// NewFreshnessJob creates the freshness sweep with a cron schedule.
func NewFreshnessJob(provider backtest.SnapshotProvider, schedule string, log *logger.Logger) *FreshnessJob {
	return &FreshnessJob{
		provider: provider,
		schedule: schedule,
		logger:   log,
	}
}

func (j *FreshnessJob) Name() string {
	return "data-freshness"
}

func (j *FreshnessJob) Schedule() string {
	return j.schedule
}

// Run checks each field's available range.
func (j *FreshnessJob) Run(ctx context.Context) error {
	now := time.Now().UTC()

	for _, field := range backtest.KnownDataFields() {
		min, max, err := j.provider.DataRange(ctx, field)
		if err != nil {
			j.logger.WithError(err).WithField("field", field).Warn("Field has no data")
			continue
		}

		age := now.Sub(max)
		log := j.logger.WithFields(map[string]interface{}{
			"field":    field,
			"min_date": min.Format(backtest.DateLayout),
			"max_date": max.Format(backtest.DateLayout),
			"age_days": int(age.Hours() / 24),
		})

		if age > staleAfter {
			log.Warn("Field data is stale")
		} else {
			log.Debug("Field data is fresh")
		}
	}

	return nil
}

var _ Job = (*FreshnessJob)(nil)
