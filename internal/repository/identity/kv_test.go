package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

func TestKV_SaveAllAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewKV(kv.New(kv.NewMemory(), nil), nil)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := []domain.Identity{{
		ID:             "u1",
		Email:          "a@x.com",
		PasswordSecret: "secret1",
		DisplayName:    "Ann",
		SavedCart:      []domain.CartLine{{ID: "l1", OwnerID: "u1", Title: "Shoe", UnitPriceCents: 5000, Quantity: 2}},
		CreatedAt:      created,
	}}
	require.NoError(t, repo.SaveAll(ctx, in))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "secret1", got[0].PasswordSecret, "password must survive storage")
	assert.Equal(t, in[0].SavedCart, got[0].SavedCart)
	assert.True(t, created.Equal(got[0].CreatedAt))
}

func TestKV_ListEmptyStore(t *testing.T) {
	repo := NewKV(kv.New(kv.NewMemory(), nil), nil)
	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKV_CorruptUsersRecordReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, UsersKey, []byte(`[{"id":`)))
	repo := NewKV(kv.New(mem, nil), nil)

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKV_TypeCorruptUsersRecordYieldsNoIdentities(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	raw := `[{"id":"u1","email":"a@x.com","password":"secret1","cart":[]},` +
		`{"id":"u2","email":"b@x.com","password":"secret2","cart":"none"}]`
	require.NoError(t, mem.Set(ctx, UsersKey, []byte(raw)))
	repo := NewKV(kv.New(mem, nil), nil)

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "no identity may come from a discarded record")

	require.NoError(t, repo.SaveAll(ctx, got))
	stored, ok, err := mem.Get(ctx, UsersKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", string(stored))
}

func TestKV_CurrentPointer(t *testing.T) {
	ctx := context.Background()
	repo := NewKV(kv.New(kv.NewMemory(), nil), nil)

	_, ok, err := repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetCurrentID(ctx, "u1"))
	id, ok, err := repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	require.NoError(t, repo.ClearCurrentID(ctx))
	_, ok, err = repo.CurrentID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
