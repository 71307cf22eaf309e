// Package memory provides an in-process storage.KV.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/foodhub-client/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Store keeps values in a map. The zero value is ready to use.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte

	// SetErr, when non-nil, is returned by every Set call.
	SetErr error
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SetErr != nil {
		return s.SetErr
	}
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}
