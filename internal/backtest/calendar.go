package backtest

import "time"

// GenerateDates produces the ordered rebalance date sequence for a calendar
// rule: strictly increasing, duplicate-free, inclusive of initial when it is
// itself a rebalance date, truncated at asOf. Pure and deterministic.
func GenerateDates(rule CalendarRuleType, initial, asOf time.Time) ([]time.Time, error) {
	switch rule {
	case RuleQuarterly:
		return quarterlyDates(truncateToDay(initial), truncateToDay(asOf)), nil
	default:
		return nil, NewConfigurationError("unsupported rule_type %q", rule)
	}
}

// quarterlyDates emits every quarter-end (last calendar day of Mar, Jun, Sep,
// Dec) on or after initial, up to and including asOf.
func quarterlyDates(initial, asOf time.Time) []time.Time {
	dates := make([]time.Time, 0, 8)

	current := quarterEnd(initial)
	for !current.After(asOf) {
		dates = append(dates, current)
		// First day of the next quarter, then its quarter-end.
		current = quarterEnd(current.AddDate(0, 0, 1))
	}

	return dates
}

// quarterEnd returns the last calendar day of the quarter containing t.
func quarterEnd(t time.Time) time.Time {
	// Month after the quarter (Apr, Jul, Oct, Jan); time.Date normalizes
	// month 13 into January of the following year.
	nextQuarterMonth := ((int(t.Month())-1)/3)*3 + 4
	firstOfNext := time.Date(t.Year(), time.Month(nextQuarterMonth), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}
