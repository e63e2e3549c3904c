package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/eventing"
	eventingstore "dorm-billing/internal/eventing/infrastructure/postgres"
)

const defaultPaymentsTable = "payments"

// SettlementOutbox writes settlement envelopes inside the transaction
// that flips the payment to paid.
type SettlementOutbox interface {
	InsertIn(ctx context.Context, ex eventingstore.Execer, env eventing.Envelope) (string, error)
}

// PaymentRepository is a Postgres implementation of the payment store.
type PaymentRepository struct {
	db     *sql.DB
	table  string
	outbox SettlementOutbox
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository(db *sql.DB, opts ...RepositoryOption) *PaymentRepository {
	repo := &PaymentRepository{db: db, table: defaultPaymentsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*PaymentRepository)

// WithTable overrides the default table.
func WithTable(table string) RepositoryOption {
	return func(repo *PaymentRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithOutbox wires the outbox store settlements are recorded through.
func WithOutbox(outbox SettlementOutbox) RepositoryOption {
	return func(repo *PaymentRepository) {
		repo.outbox = outbox
	}
}

// Create inserts a payment. The unique key on (stay_id, period_key)
// makes the loser of a creation race fail with ErrDuplicatePeriod.
func (r *PaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	if payment == nil {
		return billing.ErrNilPayment
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	payment_id,
	stay_id,
	admin_id,
	water_amount,
	water_price,
	ele_amount,
	ele_price,
	other_payment,
	other_payment_detail,
	room_price,
	payment_total,
	payment_date,
	period_key,
	payment_status,
	version,
	created_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
)
ON CONFLICT (stay_id, period_key) DO NOTHING`, r.table)

	res, err := r.db.ExecContext(
		ctx,
		query,
		payment.ID,
		payment.StayID,
		payment.AdminID,
		payment.WaterUnits.String(),
		payment.WaterPrice.String(),
		payment.EleUnits.String(),
		payment.ElePrice.String(),
		payment.Other.String(),
		payment.OtherDetail,
		payment.RoomPrice.String(),
		payment.Total.String(),
		payment.IssueDate.UTC(),
		payment.PeriodKey,
		string(payment.Status),
		payment.Version,
		payment.CreatedAt.UTC(),
		payment.UpdatedAt.UTC(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return billing.ErrDuplicatePeriod
	}
	return nil
}

// GetByID loads one payment.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*billing.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}
	if id == "" {
		return nil, billing.ErrEmptyPaymentID
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE payment_id = $1
LIMIT 1`, paymentColumns, r.table)

	row := r.db.QueryRowContext(ctx, query, id)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// Update persists the aggregate guarded by the stored version.
func (r *PaymentRepository) Update(ctx context.Context, payment *billing.Payment, expectedVersion int) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	if payment == nil {
		return billing.ErrNilPayment
	}

	affected, err := r.execVersionedUpdate(ctx, r.db, payment, expectedVersion)
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.missOrConflict(ctx, payment.ID)
	}
	payment.Version = expectedVersion + 1
	return nil
}

// RecordSettlement flips the payment to paid and writes its outbox
// envelope in one transaction. A failure on either side rolls both
// back, so the stored status never disagrees with the outbox.
func (r *PaymentRepository) RecordSettlement(ctx context.Context, payment *billing.Payment, expectedVersion int, env eventing.Envelope) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	if payment == nil {
		return billing.ErrNilPayment
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	affected, err := r.execVersionedUpdate(ctx, tx, payment, expectedVersion)
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.missOrConflict(ctx, payment.ID)
	}
	if r.outbox != nil {
		if _, err := r.outbox.InsertIn(ctx, tx, env); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	payment.Version = expectedVersion + 1
	return nil
}

func (r *PaymentRepository) execVersionedUpdate(ctx context.Context, ex eventingstore.Execer, payment *billing.Payment, expectedVersion int) (int64, error) {
	query := fmt.Sprintf(`
UPDATE %s SET
	water_amount = $1,
	ele_amount = $2,
	other_payment = $3,
	other_payment_detail = $4,
	payment_total = $5,
	payment_status = $6,
	version = version + 1,
	updated_at = $7
WHERE payment_id = $8 AND version = $9`, r.table)

	res, err := ex.ExecContext(
		ctx,
		query,
		payment.WaterUnits.String(),
		payment.EleUnits.String(),
		payment.Other.String(),
		payment.OtherDetail,
		payment.Total.String(),
		string(payment.Status),
		payment.UpdatedAt.UTC(),
		payment.ID,
		expectedVersion,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a payment guarded by the stored version.
func (r *PaymentRepository) Delete(ctx context.Context, id string, expectedVersion int) error {
	if r == nil || r.db == nil {
		return errors.New("payment repo: nil db")
	}
	if id == "" {
		return billing.ErrEmptyPaymentID
	}

	query := fmt.Sprintf(`
DELETE FROM %s
WHERE payment_id = $1 AND version = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, id, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// ListByPeriod returns payments for a billing period, newest first.
func (r *PaymentRepository) ListByPeriod(ctx context.Context, periodKey string) ([]*billing.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE period_key = $1
ORDER BY payment_date DESC, payment_id`, paymentColumns, r.table)

	return r.list(ctx, query, periodKey)
}

// ListByStay returns the billing history of one stay, newest first.
func (r *PaymentRepository) ListByStay(ctx context.Context, stayID string) ([]*billing.Payment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("payment repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE stay_id = $1
ORDER BY payment_date DESC, payment_id`, paymentColumns, r.table)

	return r.list(ctx, query, stayID)
}

func (r *PaymentRepository) list(ctx context.Context, query string, arg any) ([]*billing.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// missOrConflict decides whether a zero-row write lost a version race
// or targeted a missing payment.
func (r *PaymentRepository) missOrConflict(ctx context.Context, id string) error {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE payment_id = $1`, r.table)
	var one int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return billing.ErrPaymentNotFound
		}
		return err
	}
	return billing.ErrVersionConflict
}

const paymentColumns = `payment_id, stay_id, admin_id, water_amount, water_price,
	ele_amount, ele_price, other_payment, other_payment_detail, room_price,
	payment_total, payment_date, period_key, payment_status, version,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*billing.Payment, error) {
	var payment billing.Payment
	var waterUnits, waterPrice, eleUnits, elePrice, other, roomPrice, total string
	var status string
	if err := row.Scan(&payment.ID, &payment.StayID, &payment.AdminID,
		&waterUnits, &waterPrice, &eleUnits, &elePrice, &other, &payment.OtherDetail,
		&roomPrice, &total, &payment.IssueDate, &payment.PeriodKey, &status,
		&payment.Version, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{waterUnits, &payment.WaterUnits},
		{waterPrice, &payment.WaterPrice},
		{eleUnits, &payment.EleUnits},
		{elePrice, &payment.ElePrice},
		{other, &payment.Other},
		{roomPrice, &payment.RoomPrice},
		{total, &payment.Total},
	} {
		parsed, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, fmt.Errorf("payment repo: bad numeric: %w", err)
		}
		*field.dest = parsed
	}
	if normalized, ok := billing.ParseStatus(status); ok {
		payment.Status = normalized
	}
	payment.IssueDate = payment.IssueDate.UTC()
	payment.CreatedAt = payment.CreatedAt.UTC()
	payment.UpdatedAt = payment.UpdatedAt.UTC()
	return &payment, nil
}
