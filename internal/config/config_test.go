package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("ELASTICSEARCH_URL", "")

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5.0, cfg.ResolverTolerance)
	assert.Equal(t, 30*time.Second, cfg.HoldSweepInterval)
	assert.Equal(t, time.Minute, cfg.SessionSweepEvery)
	assert.Empty(t, cfg.AdminUser)
	assert.Equal(t, "orders", cfg.Elasticsearch.Index)
	assert.Empty(t, cfg.Elasticsearch.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SESSION_TTL_MIN", "5")
	t.Setenv("RESOLVER_TOLERANCE_PX", "7.5")
	t.Setenv("HOLD_SWEEP_INTERVAL", "10s")
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 7.5, cfg.ResolverTolerance)
	assert.Equal(t, 10*time.Second, cfg.HoldSweepInterval)
	assert.Equal(t, 5432, cfg.Database.Port)
}
