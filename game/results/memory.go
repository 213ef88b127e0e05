package results

import (
	"context"
	"sync"
)

// MemoryStore keeps results in process memory
type MemoryStore struct {
	results []Result
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, r *Result) error {
	if err := prepare(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *r)
	return nil
}

func (s *MemoryStore) ByLevel(ctx context.Context, level int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := []Result{}
	for _, r := range s.results {
		if r.Level == level {
			list = append(list, r)
		}
	}
	sortFastest(list)
	return list, nil
}

func (s *MemoryStore) ByUser(ctx context.Context, userID string) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := []Result{}
	for _, r := range s.results {
		if r.UserID == userID {
			list = append(list, r)
		}
	}
	sortOldest(list)
	return list, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
