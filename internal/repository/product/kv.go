package product

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/kv"
)

// CatalogKey is owned by this repository. No other component writes it.
const CatalogKey = "catalog"

type kvRepo struct {
	mu     sync.Mutex
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

func (r *kvRepo) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if _, err := r.store.Get(ctx, CatalogKey, &products); err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(products)))
	return products, nil
}

func (r *kvRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Upsert inserts product or replaces the entry with the same id, or failing
// that the same title. A missing id is generated.
func (r *kvRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, p := range products {
		if (product.ID != "" && p.ID == product.ID) ||
			(product.ID == "" && strings.EqualFold(p.Title, product.Title)) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		if product.ID == "" {
			product.ID = products[idx].ID
		}
		products[idx] = product
	} else {
		if product.ID == "" {
			product.ID = uuid.NewString()
		}
		products = append(products, product)
	}
	if err := r.store.Set(ctx, CatalogKey, products); err != nil {
		r.logger.Error("product repo: upsert", zap.String("title", product.Title), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: upserted", zap.String("id", product.ID), zap.String("title", product.Title))
	return &product, nil
}
