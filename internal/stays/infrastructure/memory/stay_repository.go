package memory

import (
	"context"
	"sync"

	stays "dorm-billing/internal/stays/domain"
)

// StayRepository is an in-memory repository for stays.
type StayRepository struct {
	mu   sync.RWMutex
	data map[string]stays.Stay
}

// NewStayRepository constructs a repository.
func NewStayRepository() *StayRepository {
	return &StayRepository{data: make(map[string]stays.Stay)}
}

// Put stores a stay record (test seeding).
func (r *StayRepository) Put(stay stays.Stay) {
	r.mu.Lock()
	r.data[stay.ID] = stay
	r.mu.Unlock()
}

// GetByID loads a stay.
func (r *StayRepository) GetByID(ctx context.Context, stayID string) (*stays.Stay, error) {
	_ = ctx
	if stayID == "" {
		return nil, stays.ErrEmptyStayID
	}
	r.mu.RLock()
	stay, ok := r.data[stayID]
	r.mu.RUnlock()
	if !ok {
		return nil, stays.ErrStayNotFound
	}
	copy := stay
	return &copy, nil
}

// ListOccupied returns stays that are currently billable.
func (r *StayRepository) ListOccupied(ctx context.Context) ([]stays.Stay, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []stays.Stay
	for _, stay := range r.data {
		if stay.Occupied() {
			result = append(result, stay)
		}
	}
	return result, nil
}
