package workorders

import "math"

// DefaultTaxRate is the VAT rate applied when no rate is configured.
const DefaultTaxRate = 0.1

// Totals holds the four system-computed monetary aggregates of a work
// order, in whole currency units.
type Totals struct {
	SubtotalParts int64
	SubtotalLabor int64
	TaxAmount     int64
	TotalAmount   int64
}

// ComputeTotals derives the aggregates from the summed line items and the
// stored discount. The discount can never drive the taxable base
// negative. Tax is rounded half up to the nearest whole currency unit.
// The computation is idempotent for unchanged inputs.
func ComputeTotals(partsTotal, laborTotal, discount int64, taxRate float64) Totals {
	if taxRate <= 0 {
		taxRate = 0
	}
	taxable := partsTotal + laborTotal - discount
	if taxable < 0 {
		taxable = 0
	}
	tax := int64(math.Round(float64(taxable) * taxRate))
	return Totals{
		SubtotalParts: partsTotal,
		SubtotalLabor: laborTotal,
		TaxAmount:     tax,
		TotalAmount:   taxable + tax,
	}
}

// SumLines folds line item collections into the two subtotal inputs of
// ComputeTotals.
func SumLines(parts []WorkPart, labor []WorkLabor) (partsTotal, laborTotal int64) {
	for _, p := range parts {
		partsTotal += p.LineTotal
	}
	for _, l := range labor {
		laborTotal += l.Price
	}
	return partsTotal, laborTotal
}

// PartLineTotal derives a parts line amount from quantity and unit price,
// rounded to the nearest whole currency unit. It overrides any
// caller-supplied line total.
func PartLineTotal(qty float64, unitPrice int64) int64 {
	return int64(math.Round(qty * float64(unitPrice)))
}
