package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	store := New(first, nil)
	require.NoError(t, store.Set(ctx, "cartItems", []record{{Name: "shoe", Count: 1}}))
	require.NoError(t, store.Set(ctx, "cartItems", []record{{Name: "shoe", Count: 3}}))
	require.NoError(t, store.Close())

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	store = New(second, nil)
	defer store.Close()

	var got []record
	ok, err := store.Get(ctx, "cartItems", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []record{{Name: "shoe", Count: 3}}, got)
	assert.NoError(t, store.Ping(ctx))
}

func TestSQLite_RemoveAndCorruption(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Set(ctx, "currentUser", []byte(`"abc`)))
	store := New(backend, nil)

	var id string
	ok, err := store.Get(ctx, "currentUser", &id)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, err := backend.Get(ctx, "currentUser")
	require.NoError(t, err)
	assert.False(t, present)

	require.NoError(t, store.Set(ctx, "currentUser", "abc"))
	require.NoError(t, store.Remove(ctx, "currentUser"))
	ok, err = store.Get(ctx, "currentUser", &id)
	require.NoError(t, err)
	assert.False(t, ok)
}
