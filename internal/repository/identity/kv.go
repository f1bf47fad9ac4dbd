package identity

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

// Keys owned by this repository. No other component writes them.
const (
	UsersKey       = "users"
	CurrentUserKey = "currentUser"
)

// record is the stored shape; unlike domain.Identity it carries the password.
type record struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Password  string            `json:"password"`
	Name      string            `json:"name"`
	Cart      []domain.CartLine `json:"cart"`
	CreatedAt time.Time         `json:"createdAt"`
}

type kvRepo struct {
	store  *kv.Store
	logger *zap.Logger
}

// NewKV returns a Repository backed by the kv store.
func NewKV(store *kv.Store, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &kvRepo{store: store, logger: logger}
}

func (r *kvRepo) List(ctx context.Context) ([]domain.Identity, error) {
	var records []record
	ok, err := r.store.Get(ctx, UsersKey, &records)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.Identity{}, nil
	}
	out := make([]domain.Identity, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.ID) == "" {
			r.logger.Warn("identity repo: skipping record without id", zap.String("email", rec.Email))
			continue
		}
		out = append(out, domain.Identity{
			ID:             rec.ID,
			Email:          rec.Email,
			PasswordSecret: rec.Password,
			DisplayName:    rec.Name,
			SavedCart:      rec.Cart,
			CreatedAt:      rec.CreatedAt,
		})
	}
	return out, nil
}

func (r *kvRepo) SaveAll(ctx context.Context, identities []domain.Identity) error {
	records := make([]record, 0, len(identities))
	for _, id := range identities {
		cart := id.SavedCart
		if cart == nil {
			cart = []domain.CartLine{}
		}
		records = append(records, record{
			ID:        id.ID,
			Email:     id.Email,
			Password:  id.PasswordSecret,
			Name:      id.DisplayName,
			Cart:      cart,
			CreatedAt: id.CreatedAt,
		})
	}
	return r.store.Set(ctx, UsersKey, records)
}

func (r *kvRepo) CurrentID(ctx context.Context) (string, bool, error) {
	var id string
	ok, err := r.store.Get(ctx, CurrentUserKey, &id)
	if err != nil {
		return "", false, err
	}
	if !ok || strings.TrimSpace(id) == "" {
		return "", false, nil
	}
	return id, true, nil
}

func (r *kvRepo) SetCurrentID(ctx context.Context, id string) error {
	return r.store.Set(ctx, CurrentUserKey, id)
}

func (r *kvRepo) ClearCurrentID(ctx context.Context) error {
	return r.store.Remove(ctx, CurrentUserKey)
}
