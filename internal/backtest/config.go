package backtest

// Closed tag sets for strategy variants. Unknown tags are rejected at
// configuration validation, before any collaborator is invoked.

// CalendarRuleType selects the rebalance date generator.
type CalendarRuleType string

const (
	RuleQuarterly CalendarRuleType = "Quarterly"
)

// FilterType selects the asset selection variant.
type FilterType string

const (
	FilterTopN FilterType = "TopN"
)

// WeightingType selects the weight allocation variant.
type WeightingType string

const (
	WeightingEqual WeightingType = "Equal"
)

// DataField names a ranking metric series in the snapshot provider.
type DataField string

const (
	FieldMarketCapitalization DataField = "market_capitalization"
	FieldPrices               DataField = "prices"
	FieldVolume               DataField = "volume"
	FieldADTV3Month           DataField = "adtv_3_month"
)

// KnownDataFields returns the recognized field names in a stable order.
func KnownDataFields() []DataField {
	return []DataField{
		FieldMarketCapitalization,
		FieldPrices,
		FieldVolume,
		FieldADTV3Month,
	}
}

// Known reports whether f is a recognized data field.
func (f DataField) Known() bool {
	switch f {
	case FieldMarketCapitalization, FieldPrices, FieldVolume, FieldADTV3Month:
		return true
	}
	return false
}

// CalendarRule configures the rebalance date sequence.
type CalendarRule struct {
	RuleType    CalendarRuleType `json:"rule_type" yaml:"rule_type"`
	InitialDate Date             `json:"initial_date" yaml:"initial_date"`
}

// PortfolioCreation configures asset selection.
type PortfolioCreation struct {
	FilterType FilterType `json:"filter_type" yaml:"filter_type"`
	N          int        `json:"n" yaml:"n"`
	DataField  DataField  `json:"data_field" yaml:"data_field"`
}

// WeightingScheme configures weight allocation.
type WeightingScheme struct {
	WeightingType WeightingType `json:"weighting_type" yaml:"weighting_type"`
}

// Config is the immutable input to a backtest run. Constructed once per
// request and never mutated by the engine.
type Config struct {
	CalendarRule      CalendarRule      `json:"calendar_rule" yaml:"calendar_rule"`
	PortfolioCreation PortfolioCreation `json:"portfolio_creation" yaml:"portfolio_creation"`
	WeightingScheme   WeightingScheme   `json:"weighting_scheme" yaml:"weighting_scheme"`
}

// Validate checks the closed tag sets and value constraints. It touches no
// data: a config rejected here causes zero collaborator calls.
func (c *Config) Validate() error {
	switch c.CalendarRule.RuleType {
	case RuleQuarterly:
	default:
		return NewConfigurationError("unsupported rule_type %q", c.CalendarRule.RuleType)
	}

	if c.CalendarRule.InitialDate.IsZero() {
		return NewConfigurationError("initial_date is required")
	}

	switch c.PortfolioCreation.FilterType {
	case FilterTopN:
	default:
		return NewConfigurationError("unsupported filter_type %q", c.PortfolioCreation.FilterType)
	}

	if c.PortfolioCreation.N <= 0 {
		return NewConfigurationError("n must be positive, got %d", c.PortfolioCreation.N)
	}

	if !c.PortfolioCreation.DataField.Known() {
		return NewConfigurationError(
			"unknown data_field %q, must be one of %v",
			c.PortfolioCreation.DataField, KnownDataFields(),
		)
	}

	switch c.WeightingScheme.WeightingType {
	case WeightingEqual:
	default:
		return NewConfigurationError("unsupported weighting_type %q", c.WeightingScheme.WeightingType)
	}

	return nil
}
