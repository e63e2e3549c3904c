package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	finance "dorm-billing/internal/finance/domain"
)

// ExpenseRepository is an in-memory expense store.
type ExpenseRepository struct {
	mu   sync.RWMutex
	data map[string]finance.Expense
}

// NewExpenseRepository constructs a repository.
func NewExpenseRepository() *ExpenseRepository {
	return &ExpenseRepository{data: make(map[string]finance.Expense)}
}

// Create inserts a row; re-inserting the same id is a no-op.
func (r *ExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	_ = ctx
	if expense == nil || expense.ID == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.data[expense.ID]; exists {
		return nil
	}
	r.data[expense.ID] = *expense
	return nil
}

// GetByID loads one row.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*finance.Expense, error) {
	_ = ctx
	if id == "" {
		return nil, finance.ErrEmptyID
	}
	r.mu.RLock()
	expense, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return nil, finance.ErrExpenseNotFound
	}
	return &expense, nil
}

// Delete removes one row.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	if id == "" {
		return finance.ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return finance.ErrExpenseNotFound
	}
	delete(r.data, id)
	return nil
}

// List returns rows, newest first. Year 0 lists all years.
func (r *ExpenseRepository) List(ctx context.Context, year int) ([]finance.Expense, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []finance.Expense
	for _, expense := range r.data {
		if year == 0 || expense.Date.UTC().Year() == year {
			result = append(result, expense)
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

// MonthlySums returns totals per calendar month.
func (r *ExpenseRepository) MonthlySums(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	sums := make(map[time.Month]decimal.Decimal)
	for _, expense := range r.data {
		date := expense.Date.UTC()
		if year != 0 && date.Year() != year {
			continue
		}
		sums[date.Month()] = sums[date.Month()].Add(expense.Amount)
	}
	return sums, nil
}

// Total returns the total for a year. Year 0 totals all years.
func (r *ExpenseRepository) Total(ctx context.Context, year int) (decimal.Decimal, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, expense := range r.data {
		if year == 0 || expense.Date.UTC().Year() == year {
			total = total.Add(expense.Amount)
		}
	}
	return total, nil
}
