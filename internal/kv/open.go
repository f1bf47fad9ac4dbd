package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Supported driver names.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a Backend.
type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	// Logger receives breaker state changes for remote drivers.
	Logger *zap.Logger
}

// postgresCooldown is how long an open breaker rejects calls before probing again.
const postgresCooldown = 10 * time.Second

// Open builds the Backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		pg, err := OpenPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewBreaker(pg, "kv-postgres", postgresCooldown, opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
