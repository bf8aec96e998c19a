package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "ACCESS_TOKEN_DURATION", "PORT"} {
		t.Setenv(key, "") // register restore, then clear for real
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "oauth2", cfg.DBName)
	assert.Equal(t, time.Hour, cfg.AccessTokenDuration)
	assert.Equal(t, 8080, cfg.ServerPort)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "tokens")
	t.Setenv("ACCESS_TOKEN_DURATION", "30m")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 5433, cfg.DBPort)
	assert.Equal(t, "svc", cfg.DBUser)
	assert.Equal(t, "pw", cfg.DBPassword)
	assert.Equal(t, "tokens", cfg.DBName)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenDuration)
	assert.Equal(t, 9090, cfg.ServerPort)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_DURATION", "soon")

	cfg, err := LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_InvalidDBPort(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")

	cfg, err := LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
