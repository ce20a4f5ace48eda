package memory

import (
	"context"
	"sync"

	"quizdeck/internal/domain"
)

// ResultStore keeps serialized results in a map. Last write wins.
type ResultStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewResultStore() *ResultStore {
	return &ResultStore{data: make(map[string][]byte)}
}

func (s *ResultStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *ResultStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *ResultStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
