package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/kv"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	cartrepo "storefront/internal/repository/cart"
	identityrepo "storefront/internal/repository/identity"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/directory"
	productsvc "storefront/internal/service/product"
	"storefront/internal/service/session"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.Env, cfg.LogLevel, "api")
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
		logger.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	store := kv.New(backend, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector("storefront")
	productRepo := productrepo.NewKV(store, logger)
	directoryService := directory.New(identityrepo.NewKV(store, logger), logger)
	cartService := cartsvc.New(cartrepo.NewKV(store), logger)
	manager := session.New(directoryService, cartService, logger, session.WithRecorder(collector))

	current, err := manager.OnAppStart(ctx)
	if err != nil {
		logger.Fatal("restore session", zap.Error(err))
	}
	if current != nil {
		logger.Info("resumed session", zap.String("id", current.ID), zap.String("email", current.Email))
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, store, httpserver.Deps{
		Session:  manager,
		Products: productsvc.New(productRepo),
		Metrics:  collector,
	}, cfg.AllowedOrigins())
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
