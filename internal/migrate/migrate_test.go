package migrate

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"

	"storefront/internal/db"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "sql")
	if err != nil {
		t.Fatalf("read embedded sql: %v", err)
	}
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatalf("expected at least one migration")
	}
	for v := range ups {
		if !downs[v] {
			t.Fatalf("migration %s has no down file", v)
		}
	}
	for v := range downs {
		if !ups[v] {
			t.Fatalf("migration %s has no up file", v)
		}
	}
}

func TestApplyAndVersion(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := Apply(ctx, pool); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := Apply(ctx, pool); err != nil {
		t.Fatalf("second apply should be a no-op: %v", err)
	}
	version, dirty, ok, err := Version(ctx, pool)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !ok || dirty || version < 1 {
		t.Fatalf("unexpected schema state: version=%d dirty=%v ok=%v", version, dirty, ok)
	}
}
