package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("HTTP_ADDR", "")
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins())
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	cfg := FromEnv()

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
	assert.Equal(t, "memory", cfg.StoreOptions().Driver)
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := Config{HTTPAddr: ":8080", StoreDriver: "redis"}
	assert.Error(t, cfg.Validate())

	cfg = Config{HTTPAddr: ":8080", StoreDriver: "postgres"}
	assert.Error(t, cfg.Validate())
}
