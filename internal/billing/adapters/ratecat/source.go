package ratecat

import (
	"context"
	"errors"

	billing "dorm-billing/internal/billing/domain"
	rates "dorm-billing/internal/rates/domain"
)

// Source adapts the rate catalog to the billing rate port.
type Source struct {
	repo rates.Repository
}

// NewSource constructs an adapter.
func NewSource(repo rates.Repository) (*Source, error) {
	if repo == nil {
		return nil, errors.New("ratecat: nil repository")
	}
	return &Source{repo: repo}, nil
}

// CurrentRates reads the catalog snapshot. A category missing from the
// catalog prices at zero; the bill still issues.
func (s *Source) CurrentRates(ctx context.Context) (billing.Rates, error) {
	catalog, err := s.repo.Snapshot(ctx)
	if err != nil {
		return billing.Rates{}, err
	}
	water, _ := catalog.UnitPrice(rates.BillTypeWater)
	ele, _ := catalog.UnitPrice(rates.BillTypeElectricity)
	return billing.Rates{Water: water, Electricity: ele}, nil
}
