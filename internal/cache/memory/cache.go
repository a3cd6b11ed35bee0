// Package memory provides an in-process cache.
package memory

import (
	"context"
	"sync"

	"github.com/evergreenlabs/leadscope/internal/cache"
)

// Cache keeps values in a map guarded by a mutex.
type Cache struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty in-memory cache.
func New() *Cache {
	return &Cache{values: make(map[string][]byte)}
}

var _ cache.Cache = (*Cache)(nil)

// Put stores a copy of the value.
func (c *Cache) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append([]byte(nil), value...)
	return nil
}

// Get returns a copy of the stored value.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}
