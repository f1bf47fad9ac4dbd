package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

// ProductWriter is satisfied by the product repository.
type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// DemoCatalog is the product set written by Apply.
var DemoCatalog = []domain.Product{
	{
		ID:          "demo-backpack",
		Title:       "Everyday Backpack",
		Description: "Water resistant backpack with a padded laptop sleeve",
		Category:    "men's clothing",
		ImageRef:    "https://images.example.com/backpack.jpg",
		PriceCents:  10995,
	},
	{
		ID:          "demo-tee",
		Title:       "Slim Fit Tee",
		Description: "Soft cotton tee for everyday wear",
		Category:    "men's clothing",
		ImageRef:    "https://images.example.com/tee.jpg",
		PriceCents:  2230,
	},
	{
		ID:          "demo-bracelet",
		Title:       "Silver Chain Bracelet",
		Description: "Sterling silver bracelet with a lobster clasp",
		Category:    "jewelery",
		ImageRef:    "https://images.example.com/bracelet.jpg",
		PriceCents:  6950,
	},
	{
		ID:          "demo-ssd",
		Title:       "Portable SSD 1TB",
		Description: "USB-C external drive",
		Category:    "electronics",
		ImageRef:    "https://images.example.com/ssd.jpg",
		PriceCents:  10900,
	},
	{
		ID:          "demo-jacket",
		Title:       "Rain Jacket",
		Description: "Lightweight hooded jacket",
		Category:    "women's clothing",
		ImageRef:    "https://images.example.com/jacket.jpg",
		PriceCents:  3999,
	},
}

// Apply writes the demo catalog for manual testing. It is idempotent: each
// product has a fixed id and is upserted.
func Apply(ctx context.Context, repo ProductWriter) error {
	for _, p := range DemoCatalog {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	return nil
}
