package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 720*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, "receipts", c.S3Bucket)
	assert.Empty(t, c.RedisAddr)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.Equal(t, "secretKey", cfg.SecretKey)
}
