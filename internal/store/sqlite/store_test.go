package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/store"
	"github.com/kellerblick/storefront/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"), nil)
	require.NoError(t, err)
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	require.NoError(t, s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name))
}

func TestStorageContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Storage { return newTestStore(t) })
}

func TestUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	written := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return written }
	require.NoError(t, s.Set(ctx, "booking-storage", []byte("[]")))

	got, err := s.UpdatedAt(ctx, "booking-storage")
	require.NoError(t, err)
	assert.True(t, written.Equal(got))

	_, err = s.UpdatedAt(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
