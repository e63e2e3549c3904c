package memory

import (
	"context"
	"sync"

	rates "dorm-billing/internal/rates/domain"
)

// BillTypeRepository is an in-memory rate catalog.
type BillTypeRepository struct {
	mu    sync.RWMutex
	types []rates.BillType
}

// NewBillTypeRepository constructs a repository seeded with bill types.
func NewBillTypeRepository(types ...rates.BillType) *BillTypeRepository {
	return &BillTypeRepository{types: append([]rates.BillType(nil), types...)}
}

// List returns all bill types.
func (r *BillTypeRepository) List(ctx context.Context) ([]rates.BillType, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]rates.BillType(nil), r.types...), nil
}

// Snapshot returns an immutable catalog of current unit prices.
func (r *BillTypeRepository) Snapshot(ctx context.Context) (rates.Catalog, error) {
	types, err := r.List(ctx)
	if err != nil {
		return rates.Catalog{}, err
	}
	return rates.NewCatalog(types), nil
}
