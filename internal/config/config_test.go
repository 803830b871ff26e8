package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Engine.RequestTimeout)
	assert.Equal(t, 0.10, cfg.Engine.ChaosProbability)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.ChaosMinDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.ChaosMaxDelay)
	assert.Equal(t, "logs", cfg.Engine.OutcomeLogDir)
	assert.Equal(t, "file", cfg.History.Driver)
	assert.True(t, cfg.Reporters.Console.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "loadaudit.yaml")
	content := `
server:
  address: ":9000"
  enable_cors: false
engine:
  request_timeout: 3s
  chaos_probability: 0.25
  seed: 42
history:
  driver: postgres
  database:
    host: db.internal
    port: 5432
    database: audits
reporters:
  webhook:
    enabled: true
    url: https://hooks.example.com/loadaudit
    headers:
      X-Token: abc
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.False(t, cfg.Server.EnableCORS)
	assert.Equal(t, 3*time.Second, cfg.Engine.RequestTimeout)
	assert.Equal(t, 0.25, cfg.Engine.ChaosProbability)
	assert.Equal(t, uint64(42), cfg.Engine.Seed)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.Equal(t, 5432, cfg.History.Database.Port)
	assert.Equal(t, "abc", cfg.Reporters.Webhook.Headers["X-Token"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, "logs", cfg.Engine.OutcomeLogDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromNonExistentFile(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path/loadaudit.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Address, cfg.Server.Address)
}

func TestLoadFromInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [unterminated"), 0o644))

	_, err := LoadFromFile(configPath)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LA_SERVER_ADDRESS", ":7070")
	t.Setenv("LA_ENGINE_REQUEST_TIMEOUT", "2s")
	t.Setenv("LA_ENGINE_CHAOS_PROBABILITY", "0.5")
	t.Setenv("LA_HISTORY_DRIVER", "redis")
	t.Setenv("LA_REDIS_DB", "3")
	t.Setenv("LA_REPORTER_WEBHOOK_HEADERS", "A=1, B=2")
	t.Setenv("LA_SERVER_ENABLE_METRICS", "false")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, 2*time.Second, cfg.Engine.RequestTimeout)
	assert.Equal(t, 0.5, cfg.Engine.ChaosProbability)
	assert.Equal(t, "redis", cfg.History.Driver)
	assert.Equal(t, 3, cfg.History.Redis.DB)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, cfg.Reporters.Webhook.Headers)
	assert.False(t, cfg.Server.EnableMetrics)
}

func TestEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("LA_ENGINE_MAX_CONNS_PER_HOST", "lots")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LA_ENGINE_MAX_CONNS_PER_HOST")
}

func TestCmdOverridesWinOverEnv(t *testing.T) {
	t.Setenv("LA_SERVER_ADDRESS", ":7070")

	cfg, err := NewLoader().WithCmdArgs(map[string]string{
		"server.address":         ":6060",
		"engine.outcome_log_dir": "/tmp/outcomes",
		"history.redis.key":      "runs",
		"reporters.json.enabled": "true",
		"engine.chaos_max_delay": "1s",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, ":6060", cfg.Server.Address)
	assert.Equal(t, "/tmp/outcomes", cfg.Engine.OutcomeLogDir)
	assert.Equal(t, "runs", cfg.History.Redis.Key)
	assert.True(t, cfg.Reporters.JSON.Enabled)
	assert.Equal(t, time.Second, cfg.Engine.ChaosMaxDelay)
}

func TestCmdOverrides_UnknownPath(t *testing.T) {
	_, err := NewLoader().WithCmdArgs(map[string]string{"engine.nope": "1"}).Load()
	assert.Error(t, err)

	_, err = NewLoader().WithCmdArgs(map[string]string{"server.address.port": "1"}).Load()
	assert.Error(t, err)
}

func TestSerializeRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Driver = "mysql"

	data, err := cfg.Serialize()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
