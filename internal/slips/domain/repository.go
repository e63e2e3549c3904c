package slips

import "context"

// Repository persists slip records. Records are append-only; listing
// filters stale blobs, it never deletes them.
type Repository interface {
	Create(ctx context.Context, slip *PaymentSlip) error
	ListByPayment(ctx context.Context, paymentID string) ([]PaymentSlip, error)
}
