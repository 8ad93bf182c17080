package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/store"
)

func TestWishlist_ToggleParity(t *testing.T) {
	ctx := context.Background()

	for _, initial := range []bool{false, true} {
		for calls := 0; calls <= 5; calls++ {
			w := NewWishlist(ctx, store.NewMemory(), logger.Discard())
			if initial {
				w.Toggle(ctx, "w1")
			}
			for range calls {
				w.Toggle(ctx, "w1")
			}

			want := initial != (calls%2 == 1)
			assert.Equal(t, want, w.Contains("w1"), "initial=%v calls=%d", initial, calls)
		}
	}
}

func TestWishlist_ToggleKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	w := NewWishlist(ctx, store.NewMemory(), logger.Discard())

	assert.True(t, w.Toggle(ctx, "w1"))
	assert.True(t, w.Toggle(ctx, "w2"))
	assert.True(t, w.Toggle(ctx, "w3"))
	assert.False(t, w.Toggle(ctx, "w2"))

	assert.Equal(t, []string{"w1", "w3"}, w.Items())
	assert.Equal(t, 2, w.Count())
}

func TestWishlist_Clear(t *testing.T) {
	ctx := context.Background()
	w := NewWishlist(ctx, store.NewMemory(), logger.Discard())
	w.Toggle(ctx, "w1")

	w.Clear(ctx)

	assert.Empty(t, w.Items())
	assert.False(t, w.Contains("w1"))
}

func TestWishlist_PersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemory()

	w := NewWishlist(ctx, storage, logger.Discard())
	w.Toggle(ctx, "w3")
	w.Toggle(ctx, "w1")
	w.Toggle(ctx, "w2")

	raw, err := storage.Get(ctx, WishlistKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":["w3","w1","w2"]},"version":0}`, string(raw))

	rehydrated := NewWishlist(ctx, storage, logger.Discard())
	assert.Equal(t, w.Items(), rehydrated.Items())
}

func TestWishlist_RehydrateCorruptOrDuplicate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		blob string
		want []string
	}{
		{"corrupt", `{"state":`, []string{}},
		{"wrong shape", `{"state":{"items":"w1"}}`, []string{}},
		{"duplicates", `{"state":{"items":["w1","w2","w1"]},"version":0}`, []string{"w1", "w2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := store.NewMemory()
			require.NoError(t, storage.Set(ctx, WishlistKey, []byte(tt.blob)))

			w := NewWishlist(ctx, storage, logger.Discard())
			assert.Equal(t, len(tt.want), w.Count())
			for _, id := range tt.want {
				assert.True(t, w.Contains(id))
			}
		})
	}
}

func TestWishlist_WriteFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	w := NewWishlist(ctx, failingStorage{Storage: store.NewMemory()}, logger.Discard())

	assert.True(t, w.Toggle(ctx, "w1"))
	assert.True(t, w.Contains("w1"))
}

func TestWishlist_Subscribe(t *testing.T) {
	ctx := context.Background()
	w := NewWishlist(ctx, store.NewMemory(), logger.Discard())

	ch, unsubscribe := w.Subscribe()
	w.Toggle(ctx, "w1")
	assert.Equal(t, []string{"w1"}, <-ch)

	unsubscribe()
	unsubscribe()
	w.Toggle(ctx, "w2")
	_, open := <-ch
	assert.False(t, open)
}

func TestWishlist_ToggleIgnoresEmptyID(t *testing.T) {
	ctx := context.Background()
	storage := store.NewMemory()
	w := NewWishlist(ctx, storage, logger.Discard())
	ch, unsubscribe := w.Subscribe()
	defer unsubscribe()

	assert.False(t, w.Toggle(ctx, ""))

	assert.Empty(t, w.Items())
	assert.Empty(t, ch)
	_, err := storage.Get(ctx, WishlistKey)
	assert.ErrorIs(t, err, store.ErrNotFound, "nothing is persisted")
}
