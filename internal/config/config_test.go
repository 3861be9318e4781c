package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, "risk_rules.yaml", cfg.Data.RulesFile)
	assert.Equal(t, 20, cfg.Limits.MaxStackSize)
	assert.Equal(t, 10, cfg.Limits.SearchLimit)
	assert.Equal(t, 4096, cfg.Cache.ScoreCacheSize)
	assert.False(t, cfg.Cache.RedisEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvironmentOverride(t *testing.T) {
	os.Setenv("SUPPTRACKER_SERVER_PORT", "9090")
	os.Setenv("SUPPTRACKER_LOGGING_LEVEL", "debug")
	defer os.Unsetenv("SUPPTRACKER_SERVER_PORT")
	defer os.Unsetenv("SUPPTRACKER_LOGGING_LEVEL")

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateDefaultsPass(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)
	assert.NoError(t, m.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.GetConfig().Server.Port = 0
	assert.Error(t, m.Validate())

	m.GetConfig().Server.Port = 70000
	assert.Error(t, m.Validate())
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.GetConfig().Data.Dir = ""
	assert.Error(t, m.Validate())
}

func TestValidateRejectsBadLimits(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.GetConfig().Limits.MaxStackSize = 0
	assert.Error(t, m.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.GetConfig().Logging.Level = "verbose"
	assert.Error(t, m.Validate())
}

func TestValidateRedisURLRequiredWhenEnabled(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.GetConfig().Cache.RedisEnabled = true
	m.GetConfig().Cache.RedisURL = ""
	assert.Error(t, m.Validate())
}

func TestListenAddr(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	m.GetConfig().Server.Host = "127.0.0.1"
	m.GetConfig().Server.Port = 9999
	assert.Equal(t, "127.0.0.1:9999", m.ListenAddr())
}
