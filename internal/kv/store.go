// Package kv is the durable key-value store shared by the identity and cart
// repositories. Values are JSON documents; a document that no longer decodes
// is treated as absent and removed.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// Backend stores raw values by key. Get reports ok=false for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store encodes values as JSON on top of a Backend.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// New wraps backend. A nil logger discards output.
func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Get decodes the value under key into dst, which must be a non-nil pointer.
// It returns false when the key is missing or the stored document is
// malformed; malformed documents are logged and reset so the next read starts
// from empty. dst is only written when the whole document decodes.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false, fmt.Errorf("kv get %q: destination must be a non-nil pointer, got %T", key, dst)
	}
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("kv get %q: %w", key, err)
	}
	if !ok || len(raw) == 0 {
		return false, nil
	}
	decoded := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, decoded.Interface()); err != nil {
		s.logger.Warn("kv: discarding unreadable record",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrStorageCorrupt, err)),
		)
		if rmErr := s.backend.Remove(ctx, key); rmErr != nil {
			s.logger.Warn("kv: reset unreadable record failed", zap.String("key", key), zap.Error(rmErr))
		}
		return false, nil
	}
	target.Elem().Set(decoded.Elem())
	return true, nil
}

// Set stores value under key as JSON.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv encode %q: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Remove(ctx, key); err != nil {
		return fmt.Errorf("kv remove %q: %w", key, err)
	}
	return nil
}

// Ping checks the backend when it supports it.
func (s *Store) Ping(ctx context.Context) error {
	p, ok := s.backend.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// Close releases the backend if it holds resources.
func (s *Store) Close() error {
	c, ok := s.backend.(io.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown store driver")
