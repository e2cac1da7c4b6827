// Package store provides durable key-value client storage.
package store

import "context"

// Store is a string key-value store with atomic multi-key writes.
// SetMany and Delete apply all keys or none.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
