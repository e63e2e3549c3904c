package billing

import "github.com/shopspring/decimal"

// Rates carries the unit prices captured for a bill.
type Rates struct {
	Water       decimal.Decimal
	Electricity decimal.Decimal
}

// Breakdown is the computed bill split by component.
type Breakdown struct {
	Room        decimal.Decimal
	Water       decimal.Decimal
	Electricity decimal.Decimal
	Other       decimal.Decimal
	Total       decimal.Decimal
}

// Quote computes a bill total from a stay's room price, captured unit
// prices, metered deltas and an ad-hoc charge. Pure and deterministic,
// safe to call for previews before committing a payment.
func Quote(roomPrice decimal.Decimal, rates Rates, waterUnits, eleUnits, other decimal.Decimal) (Breakdown, error) {
	if roomPrice.IsNegative() || waterUnits.IsNegative() || eleUnits.IsNegative() || other.IsNegative() {
		return Breakdown{}, ErrInvalidQuantity
	}

	water := waterUnits.Mul(rates.Water)
	electricity := eleUnits.Mul(rates.Electricity)
	total := roomPrice.Add(water).Add(electricity).Add(other)

	return Breakdown{
		Room:        roomPrice,
		Water:       water,
		Electricity: electricity,
		Other:       other,
		Total:       total,
	}, nil
}
