package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	finance "dorm-billing/internal/finance/domain"
)

const defaultIncomesTable = "incomes"

// IncomeRepository is a Postgres implementation of the income store.
type IncomeRepository struct {
	db    *sql.DB
	table string
}

// NewIncomeRepository constructs a repository.
func NewIncomeRepository(db *sql.DB, opts ...IncomeOption) *IncomeRepository {
	repo := &IncomeRepository{db: db, table: defaultIncomesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// IncomeOption configures the repository.
type IncomeOption func(*IncomeRepository)

// WithIncomeTable overrides the default table.
func WithIncomeTable(table string) IncomeOption {
	return func(repo *IncomeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts an income row. Inserting an existing id is a no-op,
// which makes derived-income replays collapse to one row.
func (r *IncomeRepository) Create(ctx context.Context, income *finance.Income) error {
	if r == nil || r.db == nil {
		return errors.New("income repo: nil db")
	}
	if income == nil || income.ID == "" {
		return finance.ErrEmptyID
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	income_id,
	income_type,
	income_amount,
	income_date,
	income_description,
	payment_id
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (income_id) DO NOTHING`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		income.ID,
		string(income.Type),
		income.Amount.String(),
		income.Date.UTC(),
		income.Description,
		income.PaymentID,
	)
	return err
}

// GetByID loads one income row.
func (r *IncomeRepository) GetByID(ctx context.Context, id string) (*finance.Income, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("income repo: nil db")
	}
	if id == "" {
		return nil, finance.ErrEmptyID
	}

	query := fmt.Sprintf(`
SELECT income_id, income_type, income_amount, income_date, income_description, payment_id
FROM %s
WHERE income_id = $1
LIMIT 1`, r.table)

	row := r.db.QueryRowContext(ctx, query, id)
	income, err := scanIncome(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, finance.ErrIncomeNotFound
		}
		return nil, err
	}
	return income, nil
}

// Delete removes one income row.
func (r *IncomeRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("income repo: nil db")
	}
	if id == "" {
		return finance.ErrEmptyID
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE income_id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return finance.ErrIncomeNotFound
	}
	return nil
}

// List returns income rows, newest first. Year 0 lists all years.
func (r *IncomeRepository) List(ctx context.Context, year int) ([]finance.Income, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("income repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT income_id, income_type, income_amount, income_date, income_description, payment_id
FROM %s
WHERE $1 = 0 OR EXTRACT(YEAR FROM income_date) = $1
ORDER BY income_date DESC, income_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []finance.Income
	for rows.Next() {
		income, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *income)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveForPayment drops all rows derived from a payment.
func (r *IncomeRepository) RemoveForPayment(ctx context.Context, paymentID string) error {
	if r == nil || r.db == nil {
		return errors.New("income repo: nil db")
	}
	if paymentID == "" {
		return finance.ErrEmptyID
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE payment_id = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, paymentID)
	return err
}

// MonthlySums returns income totals per calendar month.
func (r *IncomeRepository) MonthlySums(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("income repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT EXTRACT(MONTH FROM income_date)::int, COALESCE(SUM(income_amount), 0)
FROM %s
WHERE $1 = 0 OR EXTRACT(YEAR FROM income_date) = $1
GROUP BY 1`, r.table)

	return monthlySums(ctx, r.db, query, year)
}

// Total returns the income total for a year. Year 0 totals all years.
func (r *IncomeRepository) Total(ctx context.Context, year int) (decimal.Decimal, error) {
	if r == nil || r.db == nil {
		return decimal.Decimal{}, errors.New("income repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT COALESCE(SUM(income_amount), 0)
FROM %s
WHERE $1 = 0 OR EXTRACT(YEAR FROM income_date) = $1`, r.table)

	return scanTotal(r.db.QueryRowContext(ctx, query, year))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (*finance.Income, error) {
	var income finance.Income
	var incomeType, amount string
	if err := row.Scan(&income.ID, &incomeType, &amount, &income.Date,
		&income.Description, &income.PaymentID); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("income repo: bad amount: %w", err)
	}
	income.Amount = parsed
	if normalized, ok := finance.ParseIncomeType(incomeType); ok {
		income.Type = normalized
	}
	income.Date = income.Date.UTC()
	return &income, nil
}

func monthlySums(ctx context.Context, db *sql.DB, query string, year int) (map[time.Month]decimal.Decimal, error) {
	rows, err := db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[time.Month]decimal.Decimal)
	for rows.Next() {
		var month int
		var total string
		if err := rows.Scan(&month, &total); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("finance repo: bad sum: %w", err)
		}
		if month >= 1 && month <= 12 {
			sums[time.Month(month)] = parsed
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sums, nil
}

func scanTotal(row rowScanner) (decimal.Decimal, error) {
	var total string
	if err := row.Scan(&total); err != nil {
		return decimal.Decimal{}, err
	}
	parsed, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("finance repo: bad total: %w", err)
	}
	return parsed, nil
}
