package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "images", cfg.Storage.Dir)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "5000")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 45*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("db driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db driver")
	})

	t.Run("image backend", func(t *testing.T) {
		t.Setenv("IMAGE_BACKEND", "ftp")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "image backend")
	})
}
