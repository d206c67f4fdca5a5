package workorders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTotalsEmptyOrder(t *testing.T) {
	totals := ComputeTotals(0, 0, 0, DefaultTaxRate)
	require.Equal(t, Totals{}, totals)
}

func TestComputeTotalsTypicalOrder(t *testing.T) {
	// Two parts at 15000 each, one labor line at 20000, discount 5000.
	totals := ComputeTotals(30000, 20000, 5000, 0.1)
	require.Equal(t, int64(30000), totals.SubtotalParts)
	require.Equal(t, int64(20000), totals.SubtotalLabor)
	require.Equal(t, int64(4500), totals.TaxAmount)
	require.Equal(t, int64(49500), totals.TotalAmount)
}

func TestComputeTotalsDiscountExceedsSubtotals(t *testing.T) {
	totals := ComputeTotals(10000, 5000, 99999, 0.1)
	require.Equal(t, int64(10000), totals.SubtotalParts)
	require.Equal(t, int64(5000), totals.SubtotalLabor)
	require.Zero(t, totals.TaxAmount)
	require.Zero(t, totals.TotalAmount)
}

func TestComputeTotalsTaxRoundsHalfUp(t *testing.T) {
	// 15 * 0.1 = 1.5 rounds up to 2.
	totals := ComputeTotals(15, 0, 0, 0.1)
	require.Equal(t, int64(2), totals.TaxAmount)
	require.Equal(t, int64(17), totals.TotalAmount)

	// 14 * 0.1 = 1.4 rounds down.
	totals = ComputeTotals(14, 0, 0, 0.1)
	require.Equal(t, int64(1), totals.TaxAmount)
}

func TestComputeTotalsZeroRate(t *testing.T) {
	totals := ComputeTotals(1000, 500, 0, 0)
	require.Zero(t, totals.TaxAmount)
	require.Equal(t, int64(1500), totals.TotalAmount)
}

func TestComputeTotalsIdempotent(t *testing.T) {
	first := ComputeTotals(30000, 20000, 5000, 0.1)
	second := ComputeTotals(30000, 20000, 5000, 0.1)
	require.Equal(t, first, second)
}

func TestSumLines(t *testing.T) {
	parts := []WorkPart{
		{LineTotal: 30000},
		{LineTotal: 6000},
	}
	labor := []WorkLabor{
		{Price: 20000},
		{Price: 15000},
	}
	partsTotal, laborTotal := SumLines(parts, labor)
	require.Equal(t, int64(36000), partsTotal)
	require.Equal(t, int64(35000), laborTotal)
}

func TestPartLineTotalRounding(t *testing.T) {
	require.Equal(t, int64(30000), PartLineTotal(2, 15000))
	require.Equal(t, int64(2500), PartLineTotal(0.5, 5000))
	// 1.5 * 333 = 499.5 rounds half up.
	require.Equal(t, int64(500), PartLineTotal(1.5, 333))
	require.Equal(t, int64(0), PartLineTotal(0, 10000))
}
