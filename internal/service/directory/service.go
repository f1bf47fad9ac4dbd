// Package directory owns registered identities and the current session pointer.
package directory

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
	identityrepo "storefront/internal/repository/identity"
)

// Service handles signup/login and the saved cart of each identity.
// Passwords are stored and compared verbatim; there is no hashing.
type Service struct {
	mu       sync.Mutex
	repo     identityrepo.Repository
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// New creates a Service with the storefront's defaults.
func New(repo identityrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// SignupInput captures fields expected by signup.
type SignupInput struct {
	Email       string `json:"email" validate:"required,emailshape"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"name" validate:"required"`
}

// Signup registers a new identity and makes it the current session.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Identity, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validateSignup(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range identities {
		if domain.NormalizeEmail(existing.Email) == in.Email {
			s.logger.Info("directory: signup rejected, email taken", zap.String("email", in.Email))
			return nil, domain.ErrDuplicateEmail
		}
	}

	created := domain.Identity{
		ID:             s.newID(),
		Email:          in.Email,
		PasswordSecret: in.Password,
		DisplayName:    in.DisplayName,
		SavedCart:      []domain.CartLine{},
		CreatedAt:      s.now(),
	}
	if err := s.repo.SaveAll(ctx, append(identities, created)); err != nil {
		return nil, err
	}
	if err := s.repo.SetCurrentID(ctx, created.ID); err != nil {
		// Undo the registration.
		if rbErr := s.repo.SaveAll(ctx, identities); rbErr != nil {
			s.logger.Error("directory: signup rollback failed", zap.String("id", created.ID), zap.Error(rbErr))
		}
		return nil, err
	}
	s.logger.Info("directory: signup", zap.String("id", created.ID), zap.String("email", created.Email))
	out := created.Clone()
	return &out, nil
}

// Login makes the identity matching email and password current. Wrong email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range identities {
		if domain.NormalizeEmail(candidate.Email) != email || candidate.PasswordSecret != password {
			continue
		}
		if err := s.repo.SetCurrentID(ctx, candidate.ID); err != nil {
			return nil, err
		}
		s.logger.Info("directory: login", zap.String("id", candidate.ID))
		out := candidate.Clone()
		return &out, nil
	}
	s.logger.Info("directory: login rejected", zap.String("email", email))
	return nil, domain.ErrInvalidCredentials
}

// Logout clears the session pointer. Saved carts are left as they are.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ClearCurrentID(ctx)
}

// Unregister removes the identity with id and clears the session pointer if
// it named that identity. It exists to undo a signup whose follow-up failed.
func (s *Service) Unregister(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(identities, id)
	if idx < 0 {
		return domain.ErrNotFound
	}
	current, ok, err := s.repo.CurrentID(ctx)
	if err != nil {
		return err
	}
	if ok && current == id {
		if err := s.repo.ClearCurrentID(ctx); err != nil {
			return err
		}
	}
	remaining := append(identities[:idx:idx], identities[idx+1:]...)
	if err := s.repo.SaveAll(ctx, remaining); err != nil {
		return err
	}
	s.logger.Info("directory: unregistered", zap.String("id", id))
	return nil
}

// UpdateSavedCart replaces the saved cart of identityID wholesale.
func (s *Service) UpdateSavedCart(ctx context.Context, identityID string, cart []domain.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(identities, identityID)
	if idx < 0 {
		return domain.ErrNotFound
	}
	saved := domain.CloneLines(cart)
	if saved == nil {
		saved = []domain.CartLine{}
	}
	identities[idx].SavedCart = saved
	return s.repo.SaveAll(ctx, identities)
}

// RestoreSession returns the identity named by the persisted pointer, or nil
// when there is none. A pointer to a missing identity is cleared.
func (s *Service) RestoreSession(ctx context.Context) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.repo.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	identities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(identities, id)
	if idx < 0 {
		s.logger.Warn("directory: clearing stale session pointer", zap.String("id", id))
		if err := s.repo.ClearCurrentID(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	out := identities[idx].Clone()
	return &out, nil
}

// Get returns the identity with id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identities, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(identities, id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}
	out := identities[idx].Clone()
	return &out, nil
}

func indexOf(identities []domain.Identity, id string) int {
	if id == "" {
		return -1
	}
	for i, candidate := range identities {
		if candidate.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) validateSignup(in SignupInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("input", err.Error())
	}
	// Report fields in declaration order: email, password, name.
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "is required")
	case "emailshape":
		return domain.NewValidationError(field, "must look like local@domain")
	case "min":
		return domain.NewValidationError(field, "must be at least "+fe.Param()+" characters")
	default:
		return domain.NewValidationError(field, "is invalid")
	}
}
