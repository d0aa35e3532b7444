package backtest

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateEqual(t *testing.T) {
	portfolio := AllocateEqual([]string{"A", "B", "C", "D"})

	assert.Len(t, portfolio, 4)
	for id, w := range portfolio {
		assert.InDelta(t, 0.25, w, WeightSumTolerance, "weight for %s", id)
	}
	assert.InDelta(t, 1.0, portfolio.WeightSum(), WeightSumTolerance)
}

func TestAllocateEqual_SumInvariant(t *testing.T) {
	// 1/n does not divide evenly for every n; the sum must still land
	// within tolerance.
	ids := []string{}
	for n := 1; n <= 100; n++ {
		ids = append(ids, fmt.Sprintf("INST%03d", n))
		portfolio := AllocateEqual(ids)
		sum := portfolio.WeightSum()
		if math.Abs(sum-1.0) > WeightSumTolerance {
			t.Fatalf("n=%d: weight sum %.12f outside tolerance", n, sum)
		}
	}
}

func TestAllocateEqual_Empty(t *testing.T) {
	portfolio := AllocateEqual(nil)

	assert.NotNil(t, portfolio)
	assert.Empty(t, portfolio)
	assert.Equal(t, 0.0, portfolio.WeightSum())
}
