package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub-client/internal/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s, err := New(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	_, err = s.Get(ctx, "foodhub-cart")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "foodhub-cart", []byte(`[]`)))
	require.NoError(t, s.Set(ctx, "foodhub-cart", []byte(`[{"id":"m1"}]`)))

	got, err := s.Get(ctx, "foodhub-cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"m1"}]`, string(got))
}

func TestStore_UnsafeKeyStaysInDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "../escape", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "..")

	got, err := s.Get(ctx, "../escape")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}
