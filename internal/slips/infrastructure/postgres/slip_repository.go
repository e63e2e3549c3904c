package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	slips "dorm-billing/internal/slips/domain"
)

const defaultSlipsTable = "payment_slips"

// SlipRepository is a Postgres implementation of the slip store.
type SlipRepository struct {
	db    *sql.DB
	table string
}

// NewSlipRepository constructs a repository.
func NewSlipRepository(db *sql.DB, opts ...RepositoryOption) *SlipRepository {
	repo := &SlipRepository{db: db, table: defaultSlipsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SlipRepository)

// WithTable overrides the default table.
func WithTable(table string) RepositoryOption {
	return func(repo *SlipRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Create inserts a slip record. Re-inserting the same slip id is a no-op.
func (r *SlipRepository) Create(ctx context.Context, slip *slips.PaymentSlip) error {
	if r == nil || r.db == nil {
		return errors.New("slip repo: nil db")
	}
	if slip == nil {
		return slips.ErrNilSlip
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	slip_id,
	payment_id,
	stay_id,
	user_id,
	slip_url,
	uploaded_at
) VALUES (
	$1, $2, $3, $4, $5, $6
)
ON CONFLICT (slip_id) DO NOTHING`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		slip.ID,
		slip.PaymentID,
		slip.StayID,
		slip.UserID,
		slip.SlipURL,
		slip.UploadedAt.UTC(),
	)
	return err
}

// ListByPayment returns all recorded slips for a payment, oldest first.
func (r *SlipRepository) ListByPayment(ctx context.Context, paymentID string) ([]slips.PaymentSlip, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("slip repo: nil db")
	}
	if paymentID == "" {
		return nil, slips.ErrEmptyPaymentID
	}

	query := fmt.Sprintf(`
SELECT slip_id, payment_id, stay_id, user_id, slip_url, uploaded_at
FROM %s
WHERE payment_id = $1
ORDER BY uploaded_at, slip_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []slips.PaymentSlip
	for rows.Next() {
		var slip slips.PaymentSlip
		if err := rows.Scan(&slip.ID, &slip.PaymentID, &slip.StayID, &slip.UserID,
			&slip.SlipURL, &slip.UploadedAt); err != nil {
			return nil, err
		}
		slip.UploadedAt = slip.UploadedAt.UTC()
		result = append(result, slip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
