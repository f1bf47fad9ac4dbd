// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"storefront/internal/domain"
)

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	CartMutations *prometheus.CounterVec
	AuthAttempts  *prometheus.CounterVec
	Checkouts     prometheus.Counter
}

// NewCollector creates and registers every metric under namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CartMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_mutations_total",
				Help:      "Cart mutations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Signup, login and logout attempts by outcome",
			},
			[]string{"action", "outcome"},
		),
		Checkouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Completed checkouts",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.CartMutations,
		c.AuthAttempts,
		c.Checkouts,
	)
	return c
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CartMutation counts one cart operation.
func (c *Collector) CartMutation(operation string, err error) {
	c.CartMutations.WithLabelValues(operation, Outcome(err)).Inc()
	if operation == "checkout" && err == nil {
		c.Checkouts.Inc()
	}
}

// AuthAttempt counts one signup, login or logout.
func (c *Collector) AuthAttempt(action string, err error) {
	c.AuthAttempts.WithLabelValues(action, Outcome(err)).Inc()
}

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid_input"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	default:
		return "error"
	}
}
