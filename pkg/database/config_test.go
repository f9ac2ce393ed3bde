package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv_DefaultsWhenOptionalVarsAbsent(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/partfinder")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, "1h0m0s", cfg.ConnMaxLifetime.String())
	assert.Equal(t, "15m0s", cfg.ConnMaxIdleTime.String())
}

func TestLoadConfigFromEnv_MissingURLFails(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestLoadConfigFromEnv_InvalidDurationFails(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/partfinder")
	t.Setenv("DB_CONN_MAX_LIFETIME", "not-a-duration")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestConfigValidate_IdleExceedingOpenRejected(t *testing.T) {
	cfg := Config{URL: "postgres://localhost/partfinder", MaxOpenConns: 5, MaxIdleConns: 10}
	assert.Error(t, cfg.Validate())
}

func TestConfigValidate_ZeroMaxOpenRejected(t *testing.T) {
	cfg := Config{URL: "postgres://localhost/partfinder", MaxOpenConns: 0, MaxIdleConns: 0}
	assert.Error(t, cfg.Validate())
}
