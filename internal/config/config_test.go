package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/digimall")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "localhost", cfg.Tenancy.CentralDomain)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "product-images", cfg.Minio.ImageBucket)
	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, 3, cfg.Webhook.MaxRetries)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/digimall")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("CENTRAL_DOMAIN", "Admin.DigiMall.io")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("JOBS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.0/24")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "admin.digimall.io", cfg.Tenancy.CentralDomain)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.False(t, cfg.Jobs.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.0/24"}, cfg.Server.TrustedProxies)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/digimall")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/digimall")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("PENDING_ORDER_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 48*time.Hour, cfg.Jobs.PendingOrderTTL)
}
