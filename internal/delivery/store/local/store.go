// Package local persists the delivery queue as a JSON file on disk.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/evergreenlabs/leadscope/internal/delivery"
)

// Config captures the parameters for the file-backed queue.
type Config struct {
	// Path is the JSON file holding the queue.
	Path string `mapstructure:"path" yaml:"path"`
}

// Store serializes the whole queue to one JSON file on every mutation.
// Queue sizes are small (failed deliveries only), so the full rewrite
// is fine.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates the file-backed store, validating that the parent
// directory is usable.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("queue file path is required")
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}

	return &Store{path: cfg.Path}, nil
}

var _ delivery.Store = (*Store)(nil)

// load reads the queue file. A missing file is an empty queue.
func (s *Store) load() ([]delivery.QueuedDelivery, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read queue file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var entries []delivery.QueuedDelivery
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode queue file: %w", err)
	}
	return entries, nil
}

func (s *Store) save(entries []delivery.QueuedDelivery) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write queue file: %w", err)
	}
	return nil
}

// Append adds an entry to the queue file.
func (s *Store) Append(_ context.Context, entry delivery.QueuedDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(entries, entry))
}

// List returns every queued entry.
func (s *Store) List(_ context.Context) ([]delivery.QueuedDelivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// IncrementAttempts bumps the attempt counter for an entry.
func (s *Store) IncrementAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Attempts++
			return s.save(entries)
		}
	}
	return fmt.Errorf("delivery %q not found", id)
}

// Remove deletes an entry from the queue file.
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == id {
			return s.save(append(entries[:i], entries[i+1:]...))
		}
	}
	return fmt.Errorf("delivery %q not found", id)
}
