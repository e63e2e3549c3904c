package rates

import "context"

// Repository reads the bill type catalog.
type Repository interface {
	List(ctx context.Context) ([]BillType, error)
	Snapshot(ctx context.Context) (Catalog, error)
}
