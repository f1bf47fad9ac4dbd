package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/kv"
	"storefront/internal/logging"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.Env, cfg.LogLevel, "seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	opts := cfg.StoreOptions()
	opts.Logger = logger
	backend, err := kv.Open(ctx, opts)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	store := kv.New(backend, logger)
	defer func() { _ = store.Close() }()

	if err := seed.Apply(ctx, productrepo.NewKV(store, logger)); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied", zap.Int("products", len(seed.DemoCatalog)))
}
