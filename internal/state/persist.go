// Package state holds the storefront's client state stores: the persisted
// wishlist and bookings and the transient UI flags.
//
// Each store is an explicit instance. Mutations replace the state slice
// copy-on-write under the store's mutex, then serialize and write the whole
// state to its storage key. A failed write is logged and the in-memory
// mutation stands.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/kellerblick/storefront/internal/store"
)

// Storage keys.
const (
	WishlistKey = "wishlist-storage"
	BookingsKey = "booking-storage"
)

// schemaVersion is written into every envelope.
const schemaVersion = 0

const writeTimeout = 5 * time.Second

// envelope is the persisted blob shape: {"state": ..., "version": 0}.
type envelope[T any] struct {
	State   T   `json:"state"`
	Version int `json:"version"`
}

// persister reads and writes one store's envelope.
type persister[T any] struct {
	storage store.Storage
	key     string
	logger  *slog.Logger
}

// load returns the persisted state. Missing and corrupt blobs yield ok=false.
func (p *persister[T]) load(ctx context.Context) (T, bool) {
	var env envelope[T]

	data, err := p.storage.Get(ctx, p.key)
	if errors.Is(err, store.ErrNotFound) {
		return env.State, false
	}
	if err != nil {
		p.logger.Warn("rehydrate failed, starting empty", "key", p.key, "error", err)
		return env.State, false
	}

	if err := json.Unmarshal(data, &env); err != nil {
		p.logger.Warn("corrupt state blob, starting empty", "key", p.key, "error", err)
		var zero T
		return zero, false
	}
	return env.State, true
}

// save writes state. Errors are logged, never returned.
func (p *persister[T]) save(ctx context.Context, state T) {
	data, err := json.Marshal(envelope[T]{State: state, Version: schemaVersion})
	if err != nil {
		p.logger.Error("failed to encode state", "key", p.key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := p.storage.Set(ctx, p.key, data); err != nil {
		p.logger.Error("failed to persist state", "key", p.key, "error", err)
	}
}
