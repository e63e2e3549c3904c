package memory

import (
	"context"
	"sync"

	"dorm-billing/internal/eventing"
)

const defaultMaxAttempts = 5

// OutboxStore is an in-memory outbox for tests and single-process
// wiring, with the same retry-until-cap semantics as the Postgres one.
type OutboxStore struct {
	mu          sync.Mutex
	records     []eventing.OutboxRecord
	status      map[string]string
	attempts    map[string]int
	maxAttempts int
}

// OutboxStoreOption configures the in-memory outbox.
type OutboxStoreOption func(*OutboxStore)

// WithMaxAttempts overrides the delivery attempt cap.
func WithMaxAttempts(max int) OutboxStoreOption {
	return func(s *OutboxStore) {
		if max > 0 {
			s.maxAttempts = max
		}
	}
}

// NewOutboxStore constructs an in-memory outbox.
func NewOutboxStore(opts ...OutboxStoreOption) *OutboxStore {
	store := &OutboxStore{
		status:      make(map[string]string),
		attempts:    make(map[string]int),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Insert writes an envelope to the outbox.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	_ = ctx
	id := eventing.NewEventID()
	s.mu.Lock()
	s.records = append(s.records, eventing.OutboxRecord{ID: id, Envelope: env})
	s.status[id] = "pending"
	s.mu.Unlock()
	return id, nil
}

// ListPending returns pending outbox records in insertion order.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	_ = ctx
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []eventing.OutboxRecord
	for _, record := range s.records {
		if s.status[record.ID] != "pending" {
			continue
		}
		result = append(result, record)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// MarkSent marks an outbox record as delivered.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	s.status[id] = "sent"
	s.mu.Unlock()
	return nil
}

// MarkFailed counts a delivery failure. The record stays pending and
// is retried by later sweeps until the attempt cap parks it.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	s.attempts[id]++
	if s.attempts[id] >= s.maxAttempts {
		s.status[id] = "failed"
	}
	s.mu.Unlock()
	return nil
}

// Attempts reports how many delivery failures a record has seen.
func (s *OutboxStore) Attempts(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[id]
}

// ProcessedStore is an in-memory processed-event store.
type ProcessedStore struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	payments map[string]string
}

// NewProcessedStore constructs an in-memory processed store.
func NewProcessedStore() *ProcessedStore {
	return &ProcessedStore{
		seen:     make(map[string]struct{}),
		payments: make(map[string]string),
	}
}

// HasProcessed checks if event was already processed by the consumer.
func (s *ProcessedStore) HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	_, ok := s.seen[eventID+"|"+consumerName]
	s.mu.Unlock()
	return ok, nil
}

// MarkProcessed records the envelope as handled by the consumer.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, env eventing.Envelope, consumerName string) error {
	_ = ctx
	key := env.EventID + "|" + consumerName
	s.mu.Lock()
	s.seen[key] = struct{}{}
	s.payments[key] = env.PaymentID
	s.mu.Unlock()
	return nil
}
