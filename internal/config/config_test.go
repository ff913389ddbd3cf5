package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithSecret(t *testing.T) {
	t.Setenv("IDSW_AUTH_JWT_SECRET", "test-secret-key-at-least-32-chars-long")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "none", cfg.Switcher.SortBy)
	assert.False(t, cfg.Switcher.IncludeHost)
	assert.Equal(t, "/logoff", cfg.Switcher.LogoffURL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "identityswitcher.yaml")

	configContent := `
server:
  address: ":9999"
  secure_cookies: true

auth:
  jwt_secret: "file-secret-that-is-32-chars-long!!"
  session_ttl: 2h

switcher:
  sort_by: "username"
  include_host: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.True(t, cfg.Server.SecureCookies)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "username", cfg.Switcher.SortBy)
	assert.True(t, cfg.Switcher.IncludeHost)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/identityswitcher.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Address: ":8080"},
			Auth: AuthConfig{
				JWTSecret:  "test-secret-key-at-least-32-chars-long",
				SessionTTL: time.Hour,
			},
			Switcher: SwitcherConfig{SortBy: "none"},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("short jwt secret rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive session ttl rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.SessionTTL = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown sort order rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Switcher.SortBy = "random"
		assert.Error(t, cfg.Validate())
	})
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "pw",
		Database: "idsw",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://svc:pw@db.internal:5433/idsw?sslmode=require", d.URL())
}
