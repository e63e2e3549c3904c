package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical bill type names for metered utilities.
const (
	BillTypeWater       = "water"
	BillTypeElectricity = "electricity"
)

// BillType is a named utility category with a unit price.
type BillType struct {
	ID        int
	Name      string
	UnitPrice decimal.Decimal
}

// Catalog is an immutable snapshot of unit prices by category.
type Catalog struct {
	prices map[string]decimal.Decimal
}

// NewCatalog builds a catalog from bill types. Later duplicates win.
func NewCatalog(types []BillType) Catalog {
	prices := make(map[string]decimal.Decimal, len(types))
	for _, bt := range types {
		name := strings.ToLower(strings.TrimSpace(bt.Name))
		if name == "" {
			continue
		}
		prices[name] = bt.UnitPrice
	}
	return Catalog{prices: prices}
}

// UnitPrice returns the price for a category. A missing category
// resolves to zero so a bill can still be issued; callers that need to
// distinguish use the second return value.
func (c Catalog) UnitPrice(name string) (decimal.Decimal, bool) {
	price, ok := c.prices[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return decimal.Zero, false
	}
	return price, true
}
