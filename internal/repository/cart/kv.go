package cart

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

// LinesKey is owned by this repository. No other component writes it.
const LinesKey = "cartItems"

type kvRepo struct {
	store *kv.Store
}

// NewKV returns a Repository backed by the kv store.
func NewKV(store *kv.Store) Repository {
	return &kvRepo{store: store}
}

func (r *kvRepo) Load(ctx context.Context) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	ok, err := r.store.Get(ctx, LinesKey, &lines)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return lines, nil
}

func (r *kvRepo) Save(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return r.store.Set(ctx, LinesKey, lines)
}
