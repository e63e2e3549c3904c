package blob

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory blob presence fake.
type MemoryStore struct {
	mu   sync.RWMutex
	refs map[string]struct{}
	err  error
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{refs: make(map[string]struct{})}
}

// Put marks a ref as present.
func (s *MemoryStore) Put(ref string) {
	s.mu.Lock()
	s.refs[ref] = struct{}{}
	s.mu.Unlock()
}

// Remove marks a ref as absent.
func (s *MemoryStore) Remove(ref string) {
	s.mu.Lock()
	delete(s.refs, ref)
	s.mu.Unlock()
}

// FailWith makes every probe return err.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Exists reports recorded presence.
func (s *MemoryStore) Exists(ctx context.Context, ref string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.refs[ref]
	return ok, nil
}
