package memory

import (
	"context"
	"sort"
	"sync"

	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/eventing"
)

// SettlementOutbox receives settlement envelopes alongside the status write.
type SettlementOutbox interface {
	Insert(ctx context.Context, env eventing.Envelope) (string, error)
}

// PaymentRepository is an in-memory payment store with the same
// uniqueness and version semantics as the Postgres one.
type PaymentRepository struct {
	mu      sync.Mutex
	data    map[string]*billing.Payment
	periods map[string]string
	outbox  SettlementOutbox
}

// RepositoryOption configures the repository.
type RepositoryOption func(*PaymentRepository)

// WithOutbox wires the outbox settlements are recorded through.
func WithOutbox(outbox SettlementOutbox) RepositoryOption {
	return func(r *PaymentRepository) {
		r.outbox = outbox
	}
}

// NewPaymentRepository constructs a repository.
func NewPaymentRepository(opts ...RepositoryOption) *PaymentRepository {
	repo := &PaymentRepository{
		data:    make(map[string]*billing.Payment),
		periods: make(map[string]string),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func periodKey(stayID, period string) string {
	return stayID + "|" + period
}

// Create inserts a payment, enforcing one per (stay, period).
func (r *PaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	_ = ctx
	if payment == nil {
		return billing.ErrNilPayment
	}
	if payment.ID == "" {
		return billing.ErrEmptyPaymentID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := periodKey(payment.StayID, payment.PeriodKey)
	if _, taken := r.periods[key]; taken {
		return billing.ErrDuplicatePeriod
	}
	r.periods[key] = payment.ID
	r.data[payment.ID] = payment.Clone()
	return nil
}

// GetByID loads a payment.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*billing.Payment, error) {
	_ = ctx
	if id == "" {
		return nil, billing.ErrEmptyPaymentID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	payment, ok := r.data[id]
	if !ok {
		return nil, billing.ErrPaymentNotFound
	}
	return payment.Clone(), nil
}

// Update persists the aggregate guarded by the stored version.
func (r *PaymentRepository) Update(ctx context.Context, payment *billing.Payment, expectedVersion int) error {
	_ = ctx
	if payment == nil {
		return billing.ErrNilPayment
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[payment.ID]
	if !ok {
		return billing.ErrPaymentNotFound
	}
	if stored.Version != expectedVersion {
		return billing.ErrVersionConflict
	}
	next := payment.Clone()
	next.Version = expectedVersion + 1
	r.data[payment.ID] = next
	payment.Version = next.Version
	return nil
}

// RecordSettlement applies the paid status and appends the settlement
// envelope under one lock; a failed outbox write leaves the stored
// payment untouched.
func (r *PaymentRepository) RecordSettlement(ctx context.Context, payment *billing.Payment, expectedVersion int, env eventing.Envelope) error {
	if payment == nil {
		return billing.ErrNilPayment
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[payment.ID]
	if !ok {
		return billing.ErrPaymentNotFound
	}
	if stored.Version != expectedVersion {
		return billing.ErrVersionConflict
	}
	if r.outbox != nil {
		if _, err := r.outbox.Insert(ctx, env); err != nil {
			return err
		}
	}
	next := payment.Clone()
	next.Version = expectedVersion + 1
	r.data[payment.ID] = next
	payment.Version = next.Version
	return nil
}

// Delete removes a payment guarded by the stored version.
func (r *PaymentRepository) Delete(ctx context.Context, id string, expectedVersion int) error {
	_ = ctx
	if id == "" {
		return billing.ErrEmptyPaymentID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.data[id]
	if !ok {
		return billing.ErrPaymentNotFound
	}
	if stored.Version != expectedVersion {
		return billing.ErrVersionConflict
	}
	delete(r.periods, periodKey(stored.StayID, stored.PeriodKey))
	delete(r.data, id)
	return nil
}

// ListByPeriod returns payments for a billing period, newest first.
func (r *PaymentRepository) ListByPeriod(ctx context.Context, period string) ([]*billing.Payment, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*billing.Payment
	for _, payment := range r.data {
		if payment.PeriodKey == period {
			result = append(result, payment.Clone())
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// ListByStay returns the billing history of one stay, newest first.
func (r *PaymentRepository) ListByStay(ctx context.Context, stayID string) ([]*billing.Payment, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*billing.Payment
	for _, payment := range r.data {
		if payment.StayID == stayID {
			result = append(result, payment.Clone())
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func sortNewestFirst(payments []*billing.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].IssueDate.Equal(payments[j].IssueDate) {
			return payments[i].IssueDate.After(payments[j].IssueDate)
		}
		return payments[i].ID < payments[j].ID
	})
}
