package backtest

// Portfolio maps instrument identifiers to weight fractions. A non-empty
// portfolio's weights sum to 1.0 within 1e-9; an empty portfolio is a
// legitimate outcome when no instruments qualify.
type Portfolio map[string]float64

// WeightSumTolerance is the permitted deviation of a non-empty portfolio's
// weight sum from 1.0.
const WeightSumTolerance = 1e-9

// AllocateEqual assigns 1/len(selected) to each selected instrument. An
// empty selection yields an empty portfolio; the caller decides whether that
// deserves a warning.
func AllocateEqual(selected []string) Portfolio {
	portfolio := make(Portfolio, len(selected))
	if len(selected) == 0 {
		return portfolio
	}

	weight := 1.0 / float64(len(selected))
	for _, id := range selected {
		portfolio[id] = weight
	}
	return portfolio
}

// WeightSum returns the total weight of the portfolio.
func (p Portfolio) WeightSum() float64 {
	sum := 0.0
	for _, w := range p {
		sum += w
	}
	return sum
}
