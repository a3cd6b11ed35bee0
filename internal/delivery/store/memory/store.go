// Package memory keeps queued deliveries in-memory for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/evergreenlabs/leadscope/internal/delivery"
)

// Store is an in-memory delivery queue.
type Store struct {
	mu      sync.RWMutex
	entries []delivery.QueuedDelivery
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

var _ delivery.Store = (*Store)(nil)

// Append adds an entry to the queue.
func (s *Store) Append(_ context.Context, entry delivery.QueuedDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns a copy of every queued entry in insertion order.
func (s *Store) List(_ context.Context) ([]delivery.QueuedDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]delivery.QueuedDelivery, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// IncrementAttempts bumps the attempt counter for an entry.
func (s *Store) IncrementAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Attempts++
			return nil
		}
	}
	return fmt.Errorf("delivery %q not found", id)
}

// Remove deletes an entry.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delivery %q not found", id)
}
