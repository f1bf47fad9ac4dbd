// Package session binds the directory and the cart store: it keeps the
// active cart of the current identity and its saved snapshot in lockstep.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/service/directory"
)

type identityDirectory interface {
	Signup(ctx context.Context, in directory.SignupInput) (*domain.Identity, error)
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Logout(ctx context.Context) error
	Unregister(ctx context.Context, id string) error
	UpdateSavedCart(ctx context.Context, identityID string, cart []domain.CartLine) error
	RestoreSession(ctx context.Context) (*domain.Identity, error)
	Get(ctx context.Context, id string) (*domain.Identity, error)
}

type cartStore interface {
	AddItemQuantity(ctx context.Context, ownerID string, item domain.CartItem, quantity int) (*domain.CartLine, error)
	RemoveLine(ctx context.Context, ownerID, lineID string) error
	UpdateQuantity(ctx context.Context, ownerID, lineID string, quantity int) error
	Clear(ctx context.Context, ownerID string) error
	ViewFor(ctx context.Context, ownerID string) (domain.CartView, error)
	Contains(ctx context.Context, ownerID, title string, unitPriceCents int64) (bool, error)
	SyncWithOwner(ctx context.Context, ownerID string, saved []domain.CartLine) error
	ReplaceOwner(ctx context.Context, ownerID string, lines []domain.CartLine) error
	ClearAll(ctx context.Context) error
}

// Recorder receives operation outcomes, typically a *metrics.Collector.
type Recorder interface {
	CartMutation(operation string, err error)
	AuthAttempt(action string, err error)
}

type nopRecorder struct{}

func (nopRecorder) CartMutation(string, error) {}
func (nopRecorder) AuthAttempt(string, error)  {}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// Manager is the entry point for collaborators. Login, logout and app start
// hold the session lock exclusively; cart mutations share it and are
// serialized per owner.
type Manager struct {
	sessionMu sync.RWMutex
	currentID string

	dir      identityDirectory
	carts    cartStore
	owners   ownerLocks
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// New wires a Manager. OnAppStart must run before the first cart call.
func New(dir identityDirectory, carts cartStore, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		dir:      dir,
		carts:    carts,
		logger:   logger,
		recorder: nopRecorder{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnAppStart restores the persisted session. With a current identity the
// working set becomes its saved cart; without one the working set is emptied.
func (m *Manager) OnAppStart(ctx context.Context) (*domain.Identity, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	identity, err := m.dir.RestoreSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: restore: %w", err)
	}
	if identity == nil {
		m.currentID = ""
		if err := m.carts.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("session: clear working set: %w", err)
		}
		m.logger.Info("session: started anonymous")
		return nil, nil
	}
	if err := m.carts.SyncWithOwner(ctx, identity.ID, identity.SavedCart); err != nil {
		return nil, fmt.Errorf("session: sync cart: %w", err)
	}
	m.currentID = identity.ID
	m.logger.Info("session: restored", zap.String("id", identity.ID))
	return identity, nil
}

// Signup registers an identity and signs it in. If the cart cannot be
// switched to the new identity the registration is removed again.
func (m *Manager) Signup(ctx context.Context, in directory.SignupInput) (*domain.Identity, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	identity, err := m.dir.Signup(ctx, in)
	if err == nil {
		if err = m.activate(ctx, identity); err != nil {
			if uerr := m.dir.Unregister(ctx, identity.ID); uerr != nil {
				m.logger.Error("session: signup rollback failed", zap.String("id", identity.ID), zap.Error(uerr))
			}
		}
	}
	m.recorder.AuthAttempt("signup", err)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Login signs in the identity matching email and password. A failed login
// leaves the previous session and its cart exactly as they were.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	identity, err := m.dir.Login(ctx, email, password)
	if err == nil {
		err = m.activate(ctx, identity)
	}
	m.recorder.AuthAttempt("login", err)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// activate makes identity current and loads its saved cart. If the cart
// cannot be loaded the directory pointer is cleared again.
func (m *Manager) activate(ctx context.Context, identity *domain.Identity) error {
	if err := m.carts.SyncWithOwner(ctx, identity.ID, identity.SavedCart); err != nil {
		if lerr := m.dir.Logout(ctx); lerr != nil {
			m.logger.Error("session: pointer rollback failed", zap.String("id", identity.ID), zap.Error(lerr))
		}
		m.currentID = ""
		return fmt.Errorf("session: sync cart: %w", err)
	}
	if m.currentID != "" && m.currentID != identity.ID {
		m.logger.Info("session: switched identity", zap.String("from", m.currentID), zap.String("to", identity.ID))
	}
	m.currentID = identity.ID
	return nil
}

// Logout ends the session and empties the working set. Saved carts stay in
// the directory for the next login. The working set is cleared first; if the
// pointer cannot be cleared afterwards the owner's lines are put back, so a
// failed logout leaves the session as it was.
func (m *Manager) Logout(ctx context.Context) (err error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()
	defer func() { m.recorder.AuthAttempt("logout", err) }()

	ownerID := m.currentID
	var before []domain.CartLine
	if ownerID != "" {
		view, err := m.carts.ViewFor(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("session: read working set: %w", err)
		}
		before = view.Lines
	}
	if err := m.carts.ClearAll(ctx); err != nil {
		return fmt.Errorf("session: clear working set: %w", err)
	}
	if err := m.dir.Logout(ctx); err != nil {
		if ownerID != "" {
			if rerr := m.carts.ReplaceOwner(ctx, ownerID, before); rerr != nil {
				m.logger.Error("session: cart rollback failed", zap.String("owner", ownerID), zap.Error(rerr))
			}
		}
		return err
	}
	m.logger.Info("session: logout", zap.String("id", ownerID))
	m.currentID = ""
	return nil
}

// Current returns the signed-in identity, or ErrUnauthenticated.
func (m *Manager) Current(ctx context.Context) (*domain.Identity, error) {
	m.sessionMu.RLock()
	id := m.currentID
	m.sessionMu.RUnlock()

	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	return m.dir.Get(ctx, id)
}

// CurrentID returns the signed-in identity id, or "" when anonymous.
func (m *Manager) CurrentID() string {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()
	return m.currentID
}

// AddItem adds one unit of item to the owner's cart.
func (m *Manager) AddItem(ctx context.Context, ownerID string, item domain.CartItem) (*domain.CartLine, error) {
	return m.AddItemQuantity(ctx, ownerID, item, 1)
}

// AddItemQuantity adds quantity units of item to the owner's cart.
func (m *Manager) AddItemQuantity(ctx context.Context, ownerID string, item domain.CartItem, quantity int) (*domain.CartLine, error) {
	var line *domain.CartLine
	err := m.mutate(ctx, "add", ownerID, func(ctx context.Context) error {
		var err error
		line, err = m.carts.AddItemQuantity(ctx, ownerID, item, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveLine drops a line from the owner's cart.
func (m *Manager) RemoveLine(ctx context.Context, ownerID, lineID string) error {
	return m.mutate(ctx, "remove", ownerID, func(ctx context.Context) error {
		return m.carts.RemoveLine(ctx, ownerID, lineID)
	})
}

// UpdateQuantity sets a line's quantity, clamped to [1, 10].
func (m *Manager) UpdateQuantity(ctx context.Context, ownerID, lineID string, quantity int) error {
	return m.mutate(ctx, "update", ownerID, func(ctx context.Context) error {
		return m.carts.UpdateQuantity(ctx, ownerID, lineID, quantity)
	})
}

// Clear removes every line of the owner.
func (m *Manager) Clear(ctx context.Context, ownerID string) error {
	return m.mutate(ctx, "clear", ownerID, func(ctx context.Context) error {
		return m.carts.Clear(ctx, ownerID)
	})
}

// Checkout places a simulated order for the owner's cart and empties it.
func (m *Manager) Checkout(ctx context.Context, ownerID string) (*domain.Receipt, error) {
	var receipt *domain.Receipt
	err := m.mutate(ctx, "checkout", ownerID, func(ctx context.Context) error {
		view, err := m.carts.ViewFor(ctx, ownerID)
		if err != nil {
			return err
		}
		if len(view.Lines) == 0 {
			return domain.ErrEmptyCart
		}
		if err := m.carts.Clear(ctx, ownerID); err != nil {
			return err
		}
		receipt = &domain.Receipt{
			OrderID:    m.newID(),
			OwnerID:    ownerID,
			Lines:      view.Lines,
			TotalCents: view.TotalCents,
			ItemCount:  view.ItemCount,
			PlacedAt:   m.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("session: checkout",
		zap.String("owner", ownerID), zap.String("order", receipt.OrderID), zap.Int64("totalCents", receipt.TotalCents))
	return receipt, nil
}

// ViewFor returns the owner's active cart.
func (m *Manager) ViewFor(ctx context.Context, ownerID string) (domain.CartView, error) {
	return m.carts.ViewFor(ctx, ownerID)
}

// Contains reports whether the owner's cart holds title at unitPriceCents.
func (m *Manager) Contains(ctx context.Context, ownerID, title string, unitPriceCents int64) (bool, error) {
	return m.carts.Contains(ctx, ownerID, title, unitPriceCents)
}

// mutate runs fn under the owner's lock. When ownerID is the current
// identity the resulting lines are written to its saved cart before
// returning; if that write fails the owner's lines are put back.
func (m *Manager) mutate(ctx context.Context, op, ownerID string, fn func(context.Context) error) (err error) {
	defer func() { m.recorder.CartMutation(op, err) }()

	if ownerID == "" {
		return domain.ErrUnauthenticated
	}

	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()
	unlock := m.owners.lock(ownerID)
	defer unlock()

	if ownerID != m.currentID {
		if CurrentRequired(ctx) {
			return domain.ErrUnauthenticated
		}
		return fn(ctx)
	}

	before, err := m.carts.ViewFor(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := fn(ctx); err != nil {
		return err
	}
	after, err := m.carts.ViewFor(ctx, ownerID)
	if err == nil {
		err = m.dir.UpdateSavedCart(ctx, ownerID, after.Lines)
	}
	if err != nil {
		if rerr := m.carts.ReplaceOwner(ctx, ownerID, before.Lines); rerr != nil {
			m.logger.Error("session: cart rollback failed", zap.String("owner", ownerID), zap.Error(rerr))
		}
		return fmt.Errorf("session: save cart snapshot: %w", err)
	}
	return nil
}

type requireCurrentKey struct{}

// RequireCurrent marks ctx as acting for the signed-in identity. Mutations
// under such a context fail with ErrUnauthenticated once ownerID is no longer
// current, instead of touching a signed-out owner's lines.
func RequireCurrent(ctx context.Context) context.Context {
	return context.WithValue(ctx, requireCurrentKey{}, true)
}

// CurrentRequired reports whether ctx was marked by RequireCurrent.
func CurrentRequired(ctx context.Context) bool {
	v, _ := ctx.Value(requireCurrentKey{}).(bool)
	return v
}

// ownerLocks hands out one mutex per owner id.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (o *ownerLocks) lock(ownerID string) func() {
	o.mu.Lock()
	if o.locks == nil {
		o.locks = make(map[string]*sync.Mutex)
	}
	l, ok := o.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[ownerID] = l
	}
	o.mu.Unlock()

	l.Lock()
	return l.Unlock
}
