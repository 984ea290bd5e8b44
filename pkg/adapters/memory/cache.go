package memory

import (
	"context"
	"sync"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// Cache implements ports.RecoveryCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]domain.Snapshot
	mu   sync.Mutex
}

// NewCache creates a new in-memory recovery cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]domain.Snapshot),
	}
}

// Put stores the snapshot of name.
func (c *Cache) Put(ctx context.Context, name string, snap domain.Snapshot) error {
	// Copy errors so the caller can't mutate the parked record
	snap.Field.Errors = append([]domain.ErrorEntry(nil), snap.Field.Errors...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[name] = snap
	return nil
}

// Take returns and removes the snapshot of name.
func (c *Cache) Take(ctx context.Context, name string) (domain.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.data[name]
	if !ok {
		return domain.Snapshot{}, ports.ErrSnapshotNotFound
	}
	delete(c.data, name)
	return snap, nil
}

// Delete drops the snapshot of name.
func (c *Cache) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, name)
	return nil
}

// Clear drops every snapshot.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]domain.Snapshot)
	return nil
}

// Len returns the number of parked snapshots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
