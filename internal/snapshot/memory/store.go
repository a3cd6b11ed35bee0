// Package memory stores page snapshots in-memory for development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/evergreenlabs/leadscope/internal/game"
)

// Store keeps snapshots in-memory and returns pseudo URIs.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new in-memory snapshot store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

var _ game.SnapshotStore = (*Store)(nil)

// Put persists the content and returns a memory:// URI.
func (s *Store) Put(_ context.Context, path string, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", path), nil
}

// Bytes returns a stored snapshot, for tests.
func (s *Store) Bytes(path string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[path]
	return data, ok
}
