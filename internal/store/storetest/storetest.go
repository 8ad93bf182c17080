// Package storetest holds a conformance suite shared by every store.Storage driver.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/store"
)

// Run exercises the Storage contract against storages produced by open.
// open must return an empty storage; Run closes it.
func Run(t *testing.T, open func(t *testing.T) store.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		_, err := s.Get(ctx, "wishlist-storage")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		blob := []byte(`{"state":{"items":["w1","w2"]},"version":0}`)
		require.NoError(t, s.Set(ctx, "wishlist-storage", blob))

		got, err := s.Get(ctx, "wishlist-storage")
		require.NoError(t, err)
		assert.Equal(t, blob, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "booking-storage", []byte("first")))
		require.NoError(t, s.Set(ctx, "booking-storage", []byte("second")))

		got, err := s.Get(ctx, "booking-storage")
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "booking-storage", []byte("x")))
		require.NoError(t, s.Delete(ctx, "booking-storage"))
		require.NoError(t, s.Delete(ctx, "never-written"))

		_, err := s.Get(ctx, "booking-storage")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("keys", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		require.NoError(t, s.Set(ctx, "wishlist-storage", []byte("a")))
		require.NoError(t, s.Set(ctx, "booking-storage", []byte("b")))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"booking-storage", "wishlist-storage"}, keys)
	})

	t.Run("json helpers", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		type blob struct {
			Items []string `json:"items"`
		}
		require.NoError(t, store.SetJSON(ctx, s, "wishlist-storage", blob{Items: []string{"w9"}}))

		var got blob
		require.NoError(t, store.GetJSON(ctx, s, "wishlist-storage", &got))
		assert.Equal(t, []string{"w9"}, got.Items)
	})
}
