package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IncomeRepository persists income rows. Create is idempotent on the
// row id so derived-income replays collapse to one row. Year 0 means
// all years in queries.
type IncomeRepository interface {
	Create(ctx context.Context, income *Income) error
	GetByID(ctx context.Context, id string) (*Income, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, year int) ([]Income, error)
	RemoveForPayment(ctx context.Context, paymentID string) error
	MonthlySums(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error)
	Total(ctx context.Context, year int) (decimal.Decimal, error)
}

// ExpenseRepository persists expense rows. Year 0 means all years.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, year int) ([]Expense, error)
	MonthlySums(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error)
	Total(ctx context.Context, year int) (decimal.Decimal, error)
}
