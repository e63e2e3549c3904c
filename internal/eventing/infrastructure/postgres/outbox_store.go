package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dorm-billing/internal/eventing"
)

const (
	defaultOutboxTable       = "event_outbox"
	defaultOutboxMaxAttempts = 5
)

// Execer runs statements on either *sql.DB or *sql.Tx, so outbox rows
// can ride in the same transaction as the domain write they announce.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// OutboxStore is a Postgres implementation for outbox records.
type OutboxStore struct {
	db          *sql.DB
	table       string
	maxAttempts int
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB, opts ...OutboxOption) *OutboxStore {
	store := &OutboxStore{db: db, table: defaultOutboxTable, maxAttempts: defaultOutboxMaxAttempts}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// OutboxOption configures the outbox store.
type OutboxOption func(*OutboxStore)

// WithOutboxTable overrides the table name.
func WithOutboxTable(table string) OutboxOption {
	return func(store *OutboxStore) {
		if table != "" {
			store.table = table
		}
	}
}

// WithOutboxMaxAttempts overrides the delivery attempt cap.
func WithOutboxMaxAttempts(max int) OutboxOption {
	return func(store *OutboxStore) {
		if max > 0 {
			store.maxAttempts = max
		}
	}
}

// Insert writes an envelope to the outbox.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("outbox store: nil db")
	}
	return s.InsertIn(ctx, s.db, env)
}

// InsertIn writes an envelope using the given execer, typically the
// transaction that settles the payment the envelope refers to.
func (s *OutboxStore) InsertIn(ctx context.Context, ex Execer, env eventing.Envelope) (string, error) {
	if s == nil || ex == nil {
		return "", errors.New("outbox store: nil execer")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	outboxID := eventing.NewEventID()
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	event_id,
	event_type,
	payment_id,
	occurred_at,
	payload,
	status,
	attempts
) VALUES (
	$1, $2, $3, $4, $5, $6, 'pending', 0
)
ON CONFLICT (id)
DO NOTHING`, s.table)

	_, err = ex.ExecContext(ctx, query,
		outboxID, env.EventID, env.EventType, env.PaymentID, env.OccurredAt.UTC(), payload)
	if err != nil {
		return "", err
	}
	return outboxID, nil
}

// ListPending returns outbox records still awaiting delivery.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("outbox store: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, payload
FROM %s
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1`, s.table)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []eventing.OutboxRecord
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var env eventing.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, err
		}
		result = append(result, eventing.OutboxRecord{ID: id, Envelope: env})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkSent marks an outbox record as delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET status = 'sent', sent_at = $1
WHERE id = $2`, s.table)
	_, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id)
	return err
}

// MarkFailed counts a delivery failure. The record stays pending so
// the next sweep retries it; once attempts reach the cap it is parked
// as failed for manual inspection.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET attempts = attempts + 1,
	status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
WHERE id = $1`, s.table)
	_, err := s.db.ExecContext(ctx, query, id, s.maxAttempts)
	return err
}
