package config

import (
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New(), logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "marketplace-service", cfg.ServiceName)
	assert.Equal(t, "50052", cfg.GRPCPort)
	assert.Equal(t, "listings-media", cfg.MinIOBucket)
	assert.Equal(t, time.Hour, cfg.RedisCacheTTL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 500, cfg.BrowseFetchLimit)
	assert.False(t, cfg.MinIOUseSSL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REDIS_CACHE_TTL", "90s")
	t.Setenv("BROWSE_FETCH_LIMIT", "-3")

	cfg, err := load(viper.New(), logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.HTTPPort)
	assert.True(t, cfg.MinIOUseSSL)
	assert.Equal(t, 90*time.Second, cfg.RedisCacheTTL)
	assert.Equal(t, 500, cfg.BrowseFetchLimit)
}

func TestLoad_EmptyJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := load(viper.New(), logger.NewNop())
	assert.Error(t, err)
}
