// Package redis implements the formwork recovery cache on top of Redis.
//
// Snapshots are stored as JSON. Function-valued metadata (normalizers, value
// extractors) cannot be serialized and is not persisted; the registration that
// recovers a field supplies them again.
//
// Values come back with their JSON types: numbers decode as float64, objects
// as map[string]any and arrays as []any. Normalizers that care about the
// concrete type must accept both forms.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// Cache implements ports.RecoveryCache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration of parked snapshots.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix, e.g. to isolate the fields of one form.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: "formwork:recovery:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *Cache) key(name string) string {
	return c.prefix + "field:" + name
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Put persists the snapshot of name.
func (c *Cache) Put(ctx context.Context, name string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(name), data, c.ttl)
	pipe.SAdd(ctx, c.indexKey(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Take atomically reads and removes the snapshot of name.
func (c *Cache) Take(ctx context.Context, name string) (domain.Snapshot, error) {
	val, err := c.client.GetDel(ctx, c.key(name)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Snapshot{}, ports.ErrSnapshotNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	if err := c.client.SRem(ctx, c.indexKey(), name).Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to update index: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes the snapshot of name.
func (c *Cache) Delete(ctx context.Context, name string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(name))
	pipe.SRem(ctx, c.indexKey(), name)

	_, err := pipe.Exec(ctx)
	return err
}

// Clear removes every snapshot listed in the index.
func (c *Cache) Clear(ctx context.Context) error {
	names, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	keys := make([]string, 0, len(names)+1)
	for _, name := range names {
		keys = append(keys, c.key(name))
	}
	keys = append(keys, c.indexKey())

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
