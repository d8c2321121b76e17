// Package memstore is an in-process kv.Store used by tests and by the
// memory backend. Listings return keys in lexicographic order, matching
// what the durable backends produce.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/makkenzo/pixel-service-api/internal/storage/kv"
)

type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ kv.Store = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) List(ctx context.Context, prefix string, limit int) (kv.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if limit > 0 && len(keys) > limit {
		return kv.Page{Keys: keys[:limit], Complete: false}, nil
	}
	return kv.Page{Keys: keys, Complete: true}, nil
}
