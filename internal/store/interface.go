// Package store is the persistence boundary for client state. Each persisted
// store owns one fixed key and writes its whole state as a JSON blob.
package store

import "context"

// Storage is a durable key/value blob store.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists the stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

// Pinger is implemented by storages that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
