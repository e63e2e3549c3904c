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

const defaultExpensesTable = "expenses"

// ExpenseRepository is a Postgres implementation of the expense store.
type ExpenseRepository struct {
	db    *sql.DB
	table string
}

// NewExpenseRepository constructs a repository.
func NewExpenseRepository(db *sql.DB, opts ...ExpenseOption) *ExpenseRepository {
	repo := &ExpenseRepository{db: db, table: defaultExpensesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ExpenseOption configures the repository.
type ExpenseOption func(*ExpenseRepository)

// WithExpenseTable overrides the default table.
func WithExpenseTable(table string) ExpenseOption {
	return func(repo *ExpenseRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts an expense row.
func (r *ExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	if r == nil || r.db == nil {
		return errors.New("expense repo: nil db")
	}
	if expense == nil || expense.ID == "" {
		return finance.ErrEmptyID
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	expense_id,
	expense_type,
	expense_price,
	expense_date,
	admin_id,
	expense_description
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (expense_id) DO NOTHING`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.Type,
		expense.Amount.String(),
		expense.Date.UTC(),
		expense.AdminID,
		expense.Description,
	)
	return err
}

// GetByID loads one expense row.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*finance.Expense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("expense repo: nil db")
	}
	if id == "" {
		return nil, finance.ErrEmptyID
	}

	query := fmt.Sprintf(`
SELECT expense_id, expense_type, expense_price, expense_date, admin_id, expense_description
FROM %s
WHERE expense_id = $1
LIMIT 1`, r.table)

	row := r.db.QueryRowContext(ctx, query, id)
	expense, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, finance.ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

// Delete removes one expense row.
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("expense repo: nil db")
	}
	if id == "" {
		return finance.ErrEmptyID
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE expense_id = $1`, r.table)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return finance.ErrExpenseNotFound
	}
	return nil
}

// List returns expense rows, newest first. Year 0 lists all years.
func (r *ExpenseRepository) List(ctx context.Context, year int) ([]finance.Expense, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("expense repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT expense_id, expense_type, expense_price, expense_date, admin_id, expense_description
FROM %s
WHERE $1 = 0 OR EXTRACT(YEAR FROM expense_date) = $1
ORDER BY expense_date DESC, expense_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []finance.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MonthlySums returns expense totals per calendar month.
func (r *ExpenseRepository) MonthlySums(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("expense repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT EXTRACT(MONTH FROM expense_date)::int, COALESCE(SUM(expense_price), 0)
FROM %s
WHERE $1 = 0 OR EXTRACT(YEAR FROM expense_date) = $1
GROUP BY 1`, r.table)

	return monthlySums(ctx, r.db, query, year)
}

// Total returns the expense total for a year. Year 0 totals all years.
func (r *ExpenseRepository) Total(ctx context.Context, year int) (decimal.Decimal, error) {
	if r == nil || r.db == nil {
		return decimal.Decimal{}, errors.New("expense repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT COALESCE(SUM(expense_price), 0)
FROM %s
WHERE $1 = 0 OR EXTRACT(YEAR FROM expense_date) = $1`, r.table)

	return scanTotal(r.db.QueryRowContext(ctx, query, year))
}

func scanExpense(row rowScanner) (*finance.Expense, error) {
	var expense finance.Expense
	var amount string
	if err := row.Scan(&expense.ID, &expense.Type, &amount, &expense.Date,
		&expense.AdminID, &expense.Description); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("expense repo: bad amount: %w", err)
	}
	expense.Amount = parsed
	expense.Date = expense.Date.UTC()
	return &expense, nil
}
