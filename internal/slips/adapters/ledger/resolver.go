package ledger

import (
	"context"
	"errors"

	billing "dorm-billing/internal/billing/domain"
	"dorm-billing/internal/slips/application"
	slips "dorm-billing/internal/slips/domain"
)

// Resolver adapts the payment ledger to the slip payment port.
type Resolver struct {
	repo billing.Repository
}

// NewResolver constructs an adapter.
func NewResolver(repo billing.Repository) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New("ledger: nil repository")
	}
	return &Resolver{repo: repo}, nil
}

// ResolvePayment resolves the payment a slip attaches to. Missing
// payments surface as the slips not-found sentinel.
func (r *Resolver) ResolvePayment(ctx context.Context, paymentID string) (application.PaymentInfo, error) {
	payment, err := r.repo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, billing.ErrPaymentNotFound) || errors.Is(err, billing.ErrEmptyPaymentID) {
			return application.PaymentInfo{}, slips.ErrPaymentNotFound
		}
		return application.PaymentInfo{}, err
	}
	return application.PaymentInfo{ID: payment.ID, StayID: payment.StayID}, nil
}
