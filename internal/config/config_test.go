package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neuraforge/collab-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Zero(t, cfg.AccessTokenTTL)
	assert.Zero(t, cfg.RefreshTokenTTL)
	assert.True(t, cfg.SeedDemoUser)
	assert.Equal(t, 256, cfg.ClientSendBuffer)
	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("SEED_DEMO_USER", "false")
	t.Setenv("CLIENT_SEND_BUFFER", "not-a-number")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.False(t, cfg.SeedDemoUser)
	// unparsable values fall back to the previous layer
	assert.Equal(t, 256, cfg.ClientSendBuffer)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	err := os.WriteFile(path, []byte(`
port: "4000"
allowedOrigins: ["*"]
refreshTokenTTL: 24h
tokenSigningSecret: from-file
`), 0o600)
	require.NoError(t, err)

	t.Setenv("TOKEN_SIGNING_SECRET", "from-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "from-env", cfg.TokenSigningSecret)
	assert.True(t, cfg.OriginAllowed("https://anything.example"))
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		_, err := config.Load("")
		assert.Error(t, err)
	})
}

func TestConfig_OriginAllowed(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"http://localhost:3000"}

	assert.True(t, cfg.OriginAllowed("http://localhost:3000"))
	assert.True(t, cfg.OriginAllowed("HTTP://LOCALHOST:3000"))
	assert.False(t, cfg.OriginAllowed("http://evil.example"))
	assert.False(t, cfg.AnyOriginAllowed())
}

func TestConfig_WildcardOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"*", "http://localhost:3000"}

	assert.True(t, cfg.AnyOriginAllowed())
	assert.True(t, cfg.OriginAllowed("http://evil.example"))
	assert.False(t, cfg.OriginListed("http://evil.example"), "wildcard is not an explicit listing")
	assert.True(t, cfg.OriginListed("http://localhost:3000"))
}
