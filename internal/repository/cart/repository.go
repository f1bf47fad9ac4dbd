package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists the device-local working set of cart lines.
type Repository interface {
	Load(ctx context.Context) ([]domain.CartLine, error)
	Save(ctx context.Context, lines []domain.CartLine) error
}
