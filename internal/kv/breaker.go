package kv

import (
	"context"
	"io"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerTrips is the number of consecutive backend failures that open the breaker.
const BreakerTrips = 5

// Breaker fails fast while a remote backend keeps erroring. Missing keys are
// successes; only backend errors count against it.
type Breaker struct {
	inner Backend
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps inner. After BreakerTrips consecutive failures calls are
// rejected with gobreaker.ErrOpenState until cooldown has passed.
func NewBreaker(inner Backend, name string, cooldown time.Duration, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= BreakerTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("kv: breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

type getResult struct {
	value []byte
	ok    bool
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		value, ok, err := b.inner.Get(ctx, key)
		return getResult{value: value, ok: ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := res.(getResult)
	return r.value, r.ok, nil
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Set(ctx, key, value)
	})
	return err
}

func (b *Breaker) Remove(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Remove(ctx, key)
	})
	return err
}

// Ping bypasses the breaker so readiness reflects the backend itself.
func (b *Breaker) Ping(ctx context.Context) error {
	if p, ok := b.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (b *Breaker) Close() error {
	if c, ok := b.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// State reports the breaker state, for diagnostics.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
