package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/importer"
	"storefront/internal/kv"
	"storefront/internal/logging"
	productrepo "storefront/internal/repository/product"
)

func main() {
	var filePath string

	root := &cobra.Command{
		Use:   "importer --file <catalog.csv>",
		Short: "Import a product catalog CSV into the configured store",
		Long:  "Reads id,title,description,category,image,price rows and upserts them into the storefront catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), filePath)
		},
	}
	root.Flags().StringVar(&filePath, "file", "", "Path to the catalog CSV export")
	_ = root.MarkFlagRequired("file")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, filePath string) error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel, "importer")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := cfg.StoreOptions()
	opts.Logger = logger
	backend, err := kv.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	store := kv.New(backend, logger)
	defer func() { _ = store.Close() }()

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productrepo.NewKV(store, logger), logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
	return nil
}
