package identity

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists the identity set and the current session pointer.
type Repository interface {
	List(ctx context.Context) ([]domain.Identity, error)
	SaveAll(ctx context.Context, identities []domain.Identity) error
	CurrentID(ctx context.Context) (string, bool, error)
	SetCurrentID(ctx context.Context, id string) error
	ClearCurrentID(ctx context.Context) error
}
