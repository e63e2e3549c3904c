package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	rates "dorm-billing/internal/rates/domain"
)

const defaultBillTypesTable = "bill_types"

// BillTypeRepository is a Postgres implementation for the rate catalog.
type BillTypeRepository struct {
	db    *sql.DB
	table string
}

// NewBillTypeRepository constructs a repository.
func NewBillTypeRepository(db *sql.DB, opts ...RepositoryOption) *BillTypeRepository {
	repo := &BillTypeRepository{db: db, table: defaultBillTypesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*BillTypeRepository)

// WithTable overrides the default table.
func WithTable(table string) RepositoryOption {
	return func(repo *BillTypeRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// List returns all bill types.
func (r *BillTypeRepository) List(ctx context.Context) ([]rates.BillType, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("billtype repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT billtype_id, bill_type, billtype_price
FROM %s
ORDER BY billtype_id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []rates.BillType
	for rows.Next() {
		var bt rates.BillType
		var price string
		if err := rows.Scan(&bt.ID, &bt.Name, &price); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("billtype repo: bad unit price: %w", err)
		}
		bt.UnitPrice = parsed
		result = append(result, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Snapshot returns an immutable catalog of current unit prices.
func (r *BillTypeRepository) Snapshot(ctx context.Context) (rates.Catalog, error) {
	types, err := r.List(ctx)
	if err != nil {
		return rates.Catalog{}, err
	}
	return rates.NewCatalog(types), nil
}
