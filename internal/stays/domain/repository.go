package stays

import "context"

// Repository reads stay records. The billing engine never mutates stays.
type Repository interface {
	GetByID(ctx context.Context, stayID string) (*Stay, error)
	ListOccupied(ctx context.Context) ([]Stay, error)
}
