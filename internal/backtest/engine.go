package backtest

import (
	"context"
	"time"

	"github.com/quantfolio/quantfolio/pkg/logger"
)

// State tracks a single run's progress through the orchestration lifecycle.
type State string

const (
	StateInitialized    State = "initialized"
	StateDatesGenerated State = "dates_generated"
	StateIterating      State = "iterating"
	StateCompleted      State = "completed"
	StateFailed         State = "failed"
)

// StrategySummary echoes the strategy labels of a completed run.
type StrategySummary struct {
	Calendar  string `json:"calendar"`
	Filter    string `json:"filter"`
	Weighting string `json:"weighting"`
}

// Metadata holds run counters and timing.
type Metadata struct {
	ExecutionTime             float64         `json:"execution_time"`
	RebalanceDatesProcessed   int             `json:"rebalance_dates_processed"`
	TotalRebalanceDates       int             `json:"total_rebalance_dates"`
	AverageAssetsPerRebalance float64         `json:"average_assets_per_rebalance"`
	Strategy                  StrategySummary `json:"strategy"`
}

// Result is the chronological portfolio schedule of a completed run. It is
// owned exclusively by the call that produced it; the engine never shares it
// across requests.
type Result struct {
	ExecutionTime float64              `json:"execution_time"`
	Weights       map[string]Portfolio `json:"weights"`
	Metadata      Metadata             `json:"metadata"`
	Warnings      []string             `json:"warnings"`

	// Dates holds the chronological key order of Weights.
	Dates []time.Time `json:"-"`
}

// Orchestrator drives the rebalance date sequence against a snapshot
// provider. It holds no per-run mutable state, so one instance serves
// concurrent invocations; each run is isolated in its Run call.
type Orchestrator struct {
	provider SnapshotProvider
	logger   *logger.Logger

	// now is the processing-time clock; injectable for deterministic tests.
	now func() time.Time
}

// NewOrchestrator creates an orchestrator with injected collaborators.
func NewOrchestrator(provider SnapshotProvider, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock overrides the processing-time clock.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes one backtest. The run either completes fully or returns
// exactly one engine error with no partial result: a data-unavailable
// failure on any date fails the whole run, reporting the offending date, and
// context cancellation aborts with a timeout error.
//
// Same config and same data always produce an identical result.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*Result, error) {
	started := o.now()
	state := StateInitialized

	// Tag validation happens before any data access: a config rejected here
	// causes zero provider calls.
	if err := cfg.Validate(); err != nil {
		o.failed(state, cfg, err)
		return nil, err
	}

	field := cfg.PortfolioCreation.DataField
	initial := truncateToDay(cfg.CalendarRule.InitialDate.Time)

	minDate, maxDate, err := o.provider.DataRange(ctx, field)
	if err != nil {
		o.failed(state, cfg, err)
		return nil, err
	}
	if initial.Before(truncateToDay(minDate)) || initial.After(truncateToDay(maxDate)) {
		err := NewConfigurationError(
			"initial_date %s outside available range %s to %s",
			initial.Format(DateLayout), minDate.Format(DateLayout), maxDate.Format(DateLayout),
		)
		o.failed(state, cfg, err)
		return nil, err
	}

	dates, err := GenerateDates(cfg.CalendarRule.RuleType, initial, started)
	if err != nil {
		o.failed(state, cfg, err)
		return nil, err
	}
	state = StateDatesGenerated

	o.logger.WithFields(map[string]interface{}{
		"rule":         cfg.CalendarRule.RuleType,
		"initial_date": initial.Format(DateLayout),
		"total_dates":  len(dates),
		"data_field":   field,
	}).Info("Starting backtest")

	assembler := NewAssembler(o.provider, cfg.PortfolioCreation, o.logger)

	weights := make(map[string]Portfolio, len(dates))
	warnings := make([]string, 0)
	totalAssets := 0

	state = StateIterating
	for _, date := range dates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err := NewTimeoutError(date, ctxErr)
			o.failed(state, cfg, err)
			return nil, err
		}

		portfolio, warning, err := assembler.Assemble(ctx, date)
		if err != nil {
			o.failed(state, cfg, err)
			return nil, err
		}

		weights[date.Format(DateLayout)] = portfolio
		totalAssets += len(portfolio)
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}
	state = StateCompleted

	elapsed := o.now().Sub(started).Seconds()

	avgAssets := 0.0
	if len(dates) > 0 {
		avgAssets = float64(totalAssets) / float64(len(dates))
	}

	result := &Result{
		ExecutionTime: elapsed,
		Weights:       weights,
		Dates:         dates,
		Warnings:      warnings,
		Metadata: Metadata{
			ExecutionTime:             elapsed,
			RebalanceDatesProcessed:   len(dates),
			TotalRebalanceDates:       len(dates),
			AverageAssetsPerRebalance: avgAssets,
			Strategy: StrategySummary{
				Calendar:  string(cfg.CalendarRule.RuleType),
				Filter:    string(cfg.PortfolioCreation.FilterType),
				Weighting: string(cfg.WeightingScheme.WeightingType),
			},
		},
	}

	o.logger.WithFields(map[string]interface{}{
		"state":           state,
		"dates_processed": len(dates),
		"warnings":        len(warnings),
		"execution_time":  elapsed,
	}).Info("Backtest completed")

	return result, nil
}

func (o *Orchestrator) failed(from State, cfg Config, err error) {
	o.logger.WithError(err).WithFields(map[string]interface{}{
		"state": StateFailed,
		"from":  from,
		"rule":  cfg.CalendarRule.RuleType,
	}).Error("Backtest failed")
}
