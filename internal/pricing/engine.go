package pricing

import (
	"github.com/shopspring/decimal"
)

// TaxConfig is the tax rate applied to adjusted subtotals. It is always
// passed in explicitly so the calculators stay pure functions of their
// inputs. RatePercent is in percentage points (21 means 21%).
type TaxConfig struct {
	RatePercent decimal.Decimal
	Enabled     bool
}

var oneHundred = decimal.NewFromInt(100)

// round2 rounds at the point of computation, not only at display time, so
// repeated recalculation cannot drift.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal is the canonical quantity times unit price, rounded.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// MerchLine is a merch quote line as the calculator sees it. Unselected
// alternates inside a variant group carry Selected=false and contribute
// nothing.
type MerchLine struct {
	Selected  bool
	LineTotal decimal.Decimal
}

// MerchTotals is the full totals breakdown for a merch quote.
type MerchTotals struct {
	Subtotal         decimal.Decimal
	AdjustmentAmount decimal.Decimal
	AdjustedSubtotal decimal.Decimal
	TaxAmount        decimal.Decimal
	Total            decimal.Decimal
}

// ComputeMerchTotals derives merch quote totals from the selected lines,
// the snapshotted payment-condition percentage (signed points, e.g. -5 for
// a 5% discount) and the tax configuration. The computation is
// deterministic and idempotent.
func ComputeMerchTotals(lines []MerchLine, adjustmentPercent decimal.Decimal, tax TaxConfig) MerchTotals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if !line.Selected {
			continue
		}
		subtotal = subtotal.Add(line.LineTotal)
	}
	subtotal = round2(subtotal)

	adjusted, adjustment := applyAdjustment(subtotal, adjustmentPercent)
	taxAmount, total := applyTax(adjusted, tax)

	return MerchTotals{
		Subtotal:         subtotal,
		AdjustmentAmount: adjustment,
		AdjustedSubtotal: adjusted,
		TaxAmount:        taxAmount,
		Total:            total,
	}
}

// ServiceLine is a picking service line input to the calculator.
type ServiceLine struct {
	UnitCost decimal.Decimal
	Quantity int
}

// Subtotal returns the line's rounded extended cost.
func (s ServiceLine) Subtotal() decimal.Decimal {
	return LineTotal(s.Quantity, s.UnitCost)
}

// BoxLine is a packaging line input to the calculator.
type BoxLine struct {
	UnitCost decimal.Decimal
	Quantity int
}

// Subtotal returns the line's rounded extended cost.
func (b BoxLine) Subtotal() decimal.Decimal {
	return LineTotal(b.Quantity, b.UnitCost)
}

// PickingInput bundles everything the picking calculator needs: line data,
// the snapshotted increment fraction (0.20 = +20%), the signed
// payment-condition percentage and the tax configuration.
type PickingInput struct {
	Services          []ServiceLine
	Boxes             []BoxLine
	TotalKits         int
	IncrementFraction decimal.Decimal
	AdjustmentPercent decimal.Decimal
	Tax               TaxConfig
}

// PickingTotals is the full totals breakdown for a picking quote.
type PickingTotals struct {
	ServicesSubtotal      decimal.Decimal
	IncrementAmount       decimal.Decimal
	SubtotalWithIncrement decimal.Decimal
	BoxTotal              decimal.Decimal
	Subtotal              decimal.Decimal
	AdjustmentAmount      decimal.Decimal
	AdjustedSubtotal      decimal.Decimal
	TaxAmount             decimal.Decimal
	Total                 decimal.Decimal
	UnitPricePerKit       decimal.Decimal
}

// ComputePickingTotals derives picking quote totals. Every service line
// counts; the component increment applies over the services subtotal; boxes
// are added after the increment; adjustment and tax behave exactly as for
// merch quotes. A zero kit count short-circuits the per-kit price to zero.
func ComputePickingTotals(in PickingInput) PickingTotals {
	servicesSubtotal := decimal.Zero
	for _, line := range in.Services {
		servicesSubtotal = servicesSubtotal.Add(line.Subtotal())
	}
	servicesSubtotal = round2(servicesSubtotal)

	incrementAmount := round2(servicesSubtotal.Mul(in.IncrementFraction))
	subtotalWithIncrement := servicesSubtotal.Add(incrementAmount)

	boxTotal := decimal.Zero
	for _, line := range in.Boxes {
		boxTotal = boxTotal.Add(line.Subtotal())
	}
	boxTotal = round2(boxTotal)

	subtotal := subtotalWithIncrement.Add(boxTotal)

	adjusted, adjustment := applyAdjustment(subtotal, in.AdjustmentPercent)
	taxAmount, total := applyTax(adjusted, in.Tax)

	unitPrice := decimal.Zero
	if in.TotalKits > 0 {
		unitPrice = round2(total.Div(decimal.NewFromInt(int64(in.TotalKits))))
	}

	return PickingTotals{
		ServicesSubtotal:      servicesSubtotal,
		IncrementAmount:       incrementAmount,
		SubtotalWithIncrement: subtotalWithIncrement,
		BoxTotal:              boxTotal,
		Subtotal:              subtotal,
		AdjustmentAmount:      adjustment,
		AdjustedSubtotal:      adjusted,
		TaxAmount:             taxAmount,
		Total:                 total,
		UnitPricePerKit:       unitPrice,
	}
}

// applyAdjustment applies the signed payment-condition percentage:
// adjusted = subtotal * (1 + percent/100). Zero percent is an exact no-op.
func applyAdjustment(subtotal, percent decimal.Decimal) (adjusted, adjustment decimal.Decimal) {
	if percent.IsZero() {
		return subtotal, decimal.Zero
	}
	adjusted = round2(subtotal.Mul(oneHundred.Add(percent)).Div(oneHundred))
	return adjusted, adjusted.Sub(subtotal)
}

func applyTax(adjusted decimal.Decimal, tax TaxConfig) (taxAmount, total decimal.Decimal) {
	if !tax.Enabled {
		return decimal.Zero, adjusted
	}
	taxAmount = round2(adjusted.Mul(tax.RatePercent).Div(oneHundred))
	return taxAmount, adjusted.Add(taxAmount)
}
