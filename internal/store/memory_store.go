package store

import (
	"context"
	"sync"

	"mbank/internal/domain"
)

// MemoryStore is an unencrypted in-process SecureStore.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]string
}

var _ domain.SecureStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{m: make(map[string]string)} }

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
