package state

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/kellerblick/storefront/internal/store"
)

// WishlistState is the persisted wishlist.
type WishlistState struct {
	Items []string `json:"items"`
}

// Wishlist is an insertion-ordered set of wine ids.
type Wishlist struct {
	mu      sync.Mutex
	items   []string
	persist *persister[WishlistState]
	hub     hub[[]string]
	logger  *slog.Logger
}

// NewWishlist creates a wishlist and rehydrates it from storage.
func NewWishlist(ctx context.Context, storage store.Storage, logger *slog.Logger) *Wishlist {
	w := &Wishlist{
		persist: &persister[WishlistState]{storage: storage, key: WishlistKey, logger: logger},
		logger:  logger,
	}

	if st, ok := w.persist.load(ctx); ok {
		w.items = dedupe(st.Items)
	}
	w.logger.Debug("wishlist rehydrated", "count", len(w.items))
	return w
}

// Toggle removes id if present, otherwise appends it. Returns whether id is now present.
// An empty id is ignored.
func (w *Wishlist) Toggle(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var next []string
	added := false
	if i := slices.Index(w.items, id); i >= 0 {
		next = slices.Delete(slices.Clone(w.items), i, i+1)
	} else {
		next = append(slices.Clone(w.items), id)
		added = true
	}

	w.commit(ctx, next)
	return added
}

// Contains reports whether id is on the wishlist.
func (w *Wishlist) Contains(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Contains(w.items, id)
}

// Items returns the ids in insertion order.
func (w *Wishlist) Items() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.items)
}

// Count returns the number of ids.
func (w *Wishlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Clear empties the wishlist.
func (w *Wishlist) Clear(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commit(ctx, []string{})
}

// Subscribe returns a channel receiving the item list after every mutation.
func (w *Wishlist) Subscribe() (<-chan []string, func()) {
	return w.hub.subscribe()
}

// commit must be called with mu held.
func (w *Wishlist) commit(ctx context.Context, next []string) {
	w.items = next
	w.persist.save(ctx, WishlistState{Items: next})
	w.hub.publish(slices.Clone(next))
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
