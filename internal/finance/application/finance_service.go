package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dorm-billing/internal/auth"
	finance "dorm-billing/internal/finance/domain"
	"dorm-billing/internal/observability/metrics"
)

// FinanceService handles the ledger aggregation workflows.
type FinanceService struct {
	incomes  finance.IncomeRepository
	expenses finance.ExpenseRepository
	now      func() time.Time
	newID    func() string
}

// FinanceOption customizes the service.
type FinanceOption func(*FinanceService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) FinanceOption {
	return func(s *FinanceService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides manual row id generation.
func WithIDGenerator(gen func() string) FinanceOption {
	return func(s *FinanceService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewFinanceService constructs a service.
func NewFinanceService(incomes finance.IncomeRepository, expenses finance.ExpenseRepository, opts ...FinanceOption) (*FinanceService, error) {
	if incomes == nil {
		return nil, errors.New("finance service: nil income repo")
	}
	if expenses == nil {
		return nil, errors.New("finance service: nil expense repo")
	}
	s := &FinanceService{
		incomes:  incomes,
		expenses: expenses,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RecordIncome stores a manual income row.
func (s *FinanceService) RecordIncome(ctx context.Context, incomeType string, amount decimal.Decimal, date time.Time, description string) (*finance.Income, error) {
	parsed, ok := finance.ParseIncomeType(incomeType)
	if !ok {
		return nil, finance.ErrInvalidType
	}
	if amount.Sign() <= 0 {
		return nil, finance.ErrInvalidAmount
	}
	if date.IsZero() {
		date = s.now()
	}
	income := &finance.Income{
		ID:          "inc-" + s.newID(),
		Type:        parsed,
		Amount:      amount,
		Date:        date.UTC(),
		Description: description,
	}
	if err := s.incomes.Create(ctx, income); err != nil {
		return nil, err
	}
	return income, nil
}

// RecordExpense stores an expense row for the acting admin.
func (s *FinanceService) RecordExpense(ctx context.Context, expenseType string, amount decimal.Decimal, date time.Time, description string) (*finance.Expense, error) {
	if expenseType == "" {
		return nil, finance.ErrInvalidType
	}
	if amount.Sign() <= 0 {
		return nil, finance.ErrInvalidAmount
	}
	if date.IsZero() {
		date = s.now()
	}
	expense := &finance.Expense{
		ID:          "exp-" + s.newID(),
		Type:        expenseType,
		Amount:      amount,
		Date:        date.UTC(),
		AdminID:     auth.ActorIDFromContext(ctx),
		Description: description,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteIncome removes an income row.
func (s *FinanceService) DeleteIncome(ctx context.Context, id string) error {
	return s.incomes.Delete(ctx, id)
}

// DeleteExpense removes an expense row.
func (s *FinanceService) DeleteExpense(ctx context.Context, id string) error {
	return s.expenses.Delete(ctx, id)
}

// ListIncomes returns income rows, optionally scoped to a year.
func (s *FinanceService) ListIncomes(ctx context.Context, year int) ([]finance.Income, error) {
	return s.incomes.List(ctx, year)
}

// ListExpenses returns expense rows, optionally scoped to a year.
func (s *FinanceService) ListExpenses(ctx context.Context, year int) ([]finance.Expense, error) {
	return s.expenses.List(ctx, year)
}

// MonthlyChart returns the twelve-bucket income-versus-expense chart
// for a year. Year 0 aggregates all years.
func (s *FinanceService) MonthlyChart(ctx context.Context, year int) ([12]finance.MonthBucket, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFinanceQuery("monthly_chart", result, time.Since(start))
	}()

	incomeSums, err := s.incomes.MonthlySums(ctx, year)
	if err != nil {
		result = metrics.ResultError
		return [12]finance.MonthBucket{}, err
	}
	expenseSums, err := s.expenses.MonthlySums(ctx, year)
	if err != nil {
		result = metrics.ResultError
		return [12]finance.MonthBucket{}, err
	}
	return finance.BuildChart(incomeSums, expenseSums), nil
}

// YearEndBalance returns total income minus total expense for a year.
func (s *FinanceService) YearEndBalance(ctx context.Context, year int) (decimal.Decimal, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveFinanceQuery("year_end_balance", result, time.Since(start))
	}()

	incomeTotal, err := s.incomes.Total(ctx, year)
	if err != nil {
		result = metrics.ResultError
		return decimal.Decimal{}, err
	}
	expenseTotal, err := s.expenses.Total(ctx, year)
	if err != nil {
		result = metrics.ResultError
		return decimal.Decimal{}, err
	}
	return incomeTotal.Sub(expenseTotal), nil
}

// RemoveForPayment drops the income rows derived from a payment.
// Wired into the ledger's delete flow.
func (s *FinanceService) RemoveForPayment(ctx context.Context, paymentID string) error {
	return s.incomes.RemoveForPayment(ctx, paymentID)
}
