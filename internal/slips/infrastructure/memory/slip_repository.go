package memory

import (
	"context"
	"sort"
	"sync"

	slips "dorm-billing/internal/slips/domain"
)

// SlipRepository is an in-memory slip store.
type SlipRepository struct {
	mu   sync.RWMutex
	data map[string]slips.PaymentSlip
}

// NewSlipRepository constructs a repository.
func NewSlipRepository() *SlipRepository {
	return &SlipRepository{data: make(map[string]slips.PaymentSlip)}
}

// Create inserts a slip record.
func (r *SlipRepository) Create(ctx context.Context, slip *slips.PaymentSlip) error {
	_ = ctx
	if slip == nil {
		return slips.ErrNilSlip
	}
	r.mu.Lock()
	r.data[slip.ID] = *slip
	r.mu.Unlock()
	return nil
}

// ListByPayment returns all recorded slips for a payment, oldest first.
func (r *SlipRepository) ListByPayment(ctx context.Context, paymentID string) ([]slips.PaymentSlip, error) {
	_ = ctx
	if paymentID == "" {
		return nil, slips.ErrEmptyPaymentID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []slips.PaymentSlip
	for _, slip := range r.data {
		if slip.PaymentID == paymentID {
			result = append(result, slip)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.Before(result[j].UploadedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
