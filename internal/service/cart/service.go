// Package cart is the active working set of cart lines on this device,
// tagged by owner.
package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

// Service serializes every read-modify-write of the shared line record.
type Service struct {
	mu       sync.Mutex
	repo     cartrepo.Repository
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// New creates a Service over repo.
func New(repo cartrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// AddItem adds one unit of item to the owner's cart.
func (s *Service) AddItem(ctx context.Context, ownerID string, item domain.CartItem) (*domain.CartLine, error) {
	return s.AddItemQuantity(ctx, ownerID, item, 1)
}

// AddItemQuantity adds quantity units of item. A line with the same title and
// unit price is incremented instead of duplicated, never past MaxQuantity; a
// line already at MaxQuantity is returned unchanged.
func (s *Service) AddItemQuantity(ctx context.Context, ownerID string, item domain.CartItem, quantity int) (*domain.CartLine, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	item.Title = strings.TrimSpace(item.Title)
	if err := s.validateItem(item); err != nil {
		return nil, err
	}
	quantity = domain.ClampQuantity(quantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].OwnerID != ownerID || !lines[i].SameProduct(item.Title, item.UnitPriceCents) {
			continue
		}
		if lines[i].Quantity >= domain.MaxQuantity {
			found := lines[i]
			return &found, nil
		}
		lines[i].Quantity = domain.ClampQuantity(lines[i].Quantity + quantity)
		if err := s.repo.Save(ctx, lines); err != nil {
			return nil, err
		}
		s.logger.Debug("cart: incremented line",
			zap.String("owner", ownerID), zap.String("line", lines[i].ID), zap.Int("quantity", lines[i].Quantity))
		found := lines[i]
		return &found, nil
	}

	line := domain.CartLine{
		ID:             s.newID(),
		OwnerID:        ownerID,
		Title:          item.Title,
		ImageRef:       item.ImageRef,
		Category:       item.Category,
		UnitPriceCents: item.UnitPriceCents,
		Quantity:       quantity,
		AddedAt:        s.now(),
	}
	if err := s.repo.Save(ctx, append(lines, line)); err != nil {
		return nil, err
	}
	s.logger.Debug("cart: added line",
		zap.String("owner", ownerID), zap.String("line", line.ID), zap.Int("quantity", line.Quantity))
	return &line, nil
}

// RemoveLine drops lineID from the owner's cart. A missing line is a no-op.
func (s *Service) RemoveLine(ctx context.Context, ownerID, lineID string) error {
	if ownerID == "" {
		return domain.ErrUnauthenticated
	}
	return s.rewrite(ctx, func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		out := lines[:0:0]
		for _, l := range lines {
			if l.OwnerID == ownerID && l.ID == lineID {
				continue
			}
			out = append(out, l)
		}
		return out, len(out) != len(lines)
	})
}

// UpdateQuantity sets the quantity of lineID, clamped to [1, 10].
func (s *Service) UpdateQuantity(ctx context.Context, ownerID, lineID string, quantity int) error {
	if ownerID == "" {
		return domain.ErrUnauthenticated
	}
	quantity = domain.ClampQuantity(quantity)
	found := false
	err := s.rewrite(ctx, func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		for i := range lines {
			if lines[i].OwnerID != ownerID || lines[i].ID != lineID {
				continue
			}
			found = true
			if lines[i].Quantity == quantity {
				return lines, false
			}
			lines[i].Quantity = quantity
			return lines, true
		}
		return lines, false
	})
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}
	s.logger.Debug("cart: quantity set",
		zap.String("owner", ownerID), zap.String("line", lineID), zap.Int("quantity", quantity))
	return nil
}

// Clear removes every line of ownerID; other owners' lines are untouched.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return domain.ErrUnauthenticated
	}
	return s.rewrite(ctx, func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		out := lines[:0:0]
		for _, l := range lines {
			if l.OwnerID != ownerID {
				out = append(out, l)
			}
		}
		return out, len(out) != len(lines)
	})
}

// ViewFor returns the owner's lines and totals.
func (s *Service) ViewFor(ctx context.Context, ownerID string) (domain.CartView, error) {
	if ownerID == "" {
		return domain.CartView{}, domain.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.repo.Load(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(ownerID, ownedBy(lines, ownerID)), nil
}

// Contains reports whether the owner already holds a line for title and price.
func (s *Service) Contains(ctx context.Context, ownerID, title string, unitPriceCents int64) (bool, error) {
	view, err := s.ViewFor(ctx, ownerID)
	if err != nil {
		return false, err
	}
	title = strings.TrimSpace(title)
	for _, l := range view.Lines {
		if l.SameProduct(title, unitPriceCents) {
			return true, nil
		}
	}
	return false, nil
}

// SyncWithOwner makes saved the owner's active lines and discards every other
// owner's lines. Nothing is written when the store already matches.
func (s *Service) SyncWithOwner(ctx context.Context, ownerID string, saved []domain.CartLine) error {
	if ownerID == "" {
		return domain.ErrUnauthenticated
	}
	want := s.normalize(ownerID, saved)
	return s.rewrite(ctx, func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		if len(ownedBy(lines, ownerID)) == len(lines) && sameLines(lines, want) {
			return lines, false
		}
		s.logger.Debug("cart: synced with owner",
			zap.String("owner", ownerID), zap.Int("loaded", len(want)), zap.Int("discarded", len(lines)))
		return want, true
	})
}

// ReplaceOwner sets the owner's lines to lines, keeping other owners' lines.
func (s *Service) ReplaceOwner(ctx context.Context, ownerID string, lines []domain.CartLine) error {
	if ownerID == "" {
		return domain.ErrUnauthenticated
	}
	want := s.normalize(ownerID, lines)
	return s.rewrite(ctx, func(current []domain.CartLine) ([]domain.CartLine, bool) {
		out := make([]domain.CartLine, 0, len(current)+len(want))
		for _, l := range current {
			if l.OwnerID != ownerID {
				out = append(out, l)
			}
		}
		return append(out, want...), true
	})
}

// ClearAll empties the working set for every owner.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.rewrite(ctx, func(lines []domain.CartLine) ([]domain.CartLine, bool) {
		return []domain.CartLine{}, len(lines) > 0
	})
}

// rewrite loads the line record, applies fn and saves when fn reports a change.
func (s *Service) rewrite(ctx context.Context, fn func([]domain.CartLine) ([]domain.CartLine, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	next, changed := fn(lines)
	if !changed {
		return nil
	}
	return s.repo.Save(ctx, next)
}

// normalize tags lines with ownerID, clamps quantities and fills missing ids.
func (s *Service) normalize(ownerID string, lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		l.OwnerID = ownerID
		l.Quantity = domain.ClampQuantity(l.Quantity)
		if l.ID == "" {
			l.ID = s.newID()
		}
		out = append(out, l)
	}
	return out
}

func (s *Service) validateItem(item domain.CartItem) error {
	err := s.validate.Struct(item)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].StructField() {
		case "Title":
			return domain.NewValidationError("title", "is required")
		case "UnitPriceCents":
			return domain.NewValidationError("priceCents", "must not be negative")
		}
	}
	return domain.NewValidationError("item", err.Error())
}

func ownedBy(lines []domain.CartLine, ownerID string) []domain.CartLine {
	var out []domain.CartLine
	for _, l := range lines {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out
}

func sameLines(a, b []domain.CartLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.OwnerID != y.OwnerID || x.Title != y.Title ||
			x.ImageRef != y.ImageRef || x.Category != y.Category ||
			x.UnitPriceCents != y.UnitPriceCents || x.Quantity != y.Quantity ||
			!x.AddedAt.Equal(y.AddedAt) {
			return false
		}
	}
	return true
}
