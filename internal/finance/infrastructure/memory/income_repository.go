package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	finance "dorm-billing/internal/finance/domain"
)

// IncomeRepository is an in-memory income store with the same
// idempotent-create semantics as the Postgres one.
type IncomeRepository struct {
	mu   sync.RWMutex
	data map[string]finance.Income
}

// NewIncomeRepository constructs a repository.
func NewIncomeRepository() *IncomeRepository {
	return &IncomeRepository{data: make(map[string]finance.Income)}
}

// Create inserts a row; re-inserting the same id is a no-op.
func (r *IncomeRepository) Create(ctx context.Context, income *finance.Income) error {
	_ = ctx
	if income == nil || income.ID == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[income.ID]; exists {
		return nil
	}
	r.data[income.ID] = *income
	return nil
}

// GetByID loads one row.
func (r *IncomeRepository) GetByID(ctx context.Context, id string) (*finance.Income, error) {
	_ = ctx
	if id == "" {
		return nil, finance.ErrEmptyID
	}
	r.mu.RLock()
	income, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, finance.ErrIncomeNotFound
	}
	return &income, nil
}

// Delete removes one row.
func (r *IncomeRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	if id == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return finance.ErrIncomeNotFound
	}
	delete(r.data, id)
	return nil
}

// List returns rows, newest first. Year 0 lists all years.
func (r *IncomeRepository) List(ctx context.Context, year int) ([]finance.Income, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []finance.Income
	for _, income := range r.data {
		if year == 0 || income.Date.UTC().Year() == year {
			result = append(result, income)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// RemoveForPayment drops all rows derived from a payment.
func (r *IncomeRepository) RemoveForPayment(ctx context.Context, paymentID string) error {
	_ = ctx
	if paymentID == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, income := range r.data {
		if income.PaymentID == paymentID {
			delete(r.data, id)
		}
	}
	return nil
}

// MonthlySums returns totals per calendar month.
func (r *IncomeRepository) MonthlySums(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	sums := make(map[time.Month]decimal.Decimal)
	for _, income := range r.data {
		date := income.Date.UTC()
		if year != 0 && date.Year() != year {
			continue
		}
		sums[date.Month()] = sums[date.Month()].Add(income.Amount)
	}
	return sums, nil
}

// Total returns the total for a year. Year 0 totals all years.
func (r *IncomeRepository) Total(ctx context.Context, year int) (decimal.Decimal, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, income := range r.data {
		if year == 0 || income.Date.UTC().Year() == year {
			total = total.Add(income.Amount)
		}
	}
	return total, nil
}
