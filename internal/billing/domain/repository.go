package billing

import "context"

// Repository persists payment aggregates.
type Repository interface {
	// Create inserts a new payment. A second payment for the same
	// (stay, period) pair fails with ErrDuplicatePeriod.
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	// Update persists the aggregate when the stored version still
	// matches expectedVersion, then bumps the version. A mismatch
	// fails with ErrVersionConflict.
	Update(ctx context.Context, payment *Payment, expectedVersion int) error
	Delete(ctx context.Context, id string, expectedVersion int) error
	ListByPeriod(ctx context.Context, periodKey string) ([]*Payment, error)
	ListByStay(ctx context.Context, stayID string) ([]*Payment, error)
}
