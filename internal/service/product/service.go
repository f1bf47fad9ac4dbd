package product

import (
	"context"
	"sort"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the catalog, optionally narrowed to one category.
func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		if products == nil {
			products = []domain.Product{}
		}
		return products, nil
	}
	out := []domain.Product{}
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Categories returns the distinct categories in the catalog, sorted.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}
