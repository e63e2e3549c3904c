package stayreg

import (
	"context"
	"errors"

	"dorm-billing/internal/billing/application"
	billing "dorm-billing/internal/billing/domain"
	stays "dorm-billing/internal/stays/domain"
)

// Reader adapts the stay registry to the billing stay port.
type Reader struct {
	repo stays.Repository
}

// NewReader constructs an adapter.
func NewReader(repo stays.Repository) (*Reader, error) {
	if repo == nil {
		return nil, errors.New("stayreg: nil repository")
	}
	return &Reader{repo: repo}, nil
}

// ReadStay resolves a stay snapshot. Missing stays surface as the
// billing not-found sentinel.
func (r *Reader) ReadStay(ctx context.Context, stayID string) (application.StaySnapshot, error) {
	stay, err := r.repo.GetByID(ctx, stayID)
	if err != nil {
		if errors.Is(err, stays.ErrStayNotFound) || errors.Is(err, stays.ErrEmptyStayID) {
			return application.StaySnapshot{}, billing.ErrStayNotFound
		}
		return application.StaySnapshot{}, err
	}
	return application.StaySnapshot{
		ID:        stay.ID,
		UserID:    stay.UserID,
		UserName:  stay.UserName,
		RoomID:    stay.RoomID,
		RoomNum:   stay.RoomNum,
		RoomPrice: stay.RoomPrice,
		Occupied:  stay.Occupied(),
	}, nil
}
