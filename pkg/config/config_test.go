package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, []string{"SPY", "QQQ"}, c.Benchmarks.Symbols)
	assert.Equal(t, time.Hour, c.Cache.TTL.Equity)
	assert.Equal(t, time.Minute, c.Cache.TTL.Synthetic)
	assert.Equal(t, "api", c.Sources.Fred.Mode)
	assert.Equal(t, "info", c.Log.Level)
	assert.False(t, c.Kafka.Enabled)
}

func TestLoadShippedConfig(t *testing.T) {
	c, err := Load("../../config/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "config/catalog.yaml", c.Catalog.Path)
	assert.Equal(t, 220.0, c.Fallback.ReferencePrices["AMZN"])
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
cache:
  backend: layered
  ttl:
    market: 2m
benchmarks:
  symbols: [DIA]
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "layered", c.Cache.Backend)
	assert.Equal(t, 2*time.Minute, c.Cache.TTL.Market)
	assert.Equal(t, 24*time.Hour, c.Cache.TTL.Economic)
	assert.Equal(t, []string{"DIA"}, c.Benchmarks.Symbols)
}

func TestLoadRejectsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"backend":     "cache:\n  backend: disk\n",
		"fred mode":   "sources:\n  fred:\n    mode: scrape\n",
		"benchmarks":  "benchmarks:\n  symbols: [SPY, QQQ, DIA]\n",
		"kafka":       "kafka:\n  enabled: true\n",
		"shipping":    "log_shipping:\n  enabled: true\n",
		"probability": "fallback:\n  reference_probabilities:\n    some-market: 140\n",
		"redis addr":  "cache:\n  backend: redis\nredis:\n  addr: \"\"\n",
	} {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	env := map[string]string{
		"FRED_API_KEY":  "secret",
		"KAFKA_BROKERS": "a:9092, b:9092,",
		"LOG_LEVEL":     "DEBUG",
		"CACHE_BACKEND": "Redis",
		"CATALOG_PATH":  "/etc/proxypull/catalog.yaml",
		"HTTP_PORT":     "9000",
	}
	require.NoError(t, c.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	assert.Equal(t, "secret", c.Sources.Fred.APIKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "redis", c.Cache.Backend)
	assert.Equal(t, "/etc/proxypull/catalog.yaml", c.Catalog.Path)
	assert.Equal(t, 9000, c.Server.Port)
	assert.NoError(t, c.Validate())
}

func TestApplyEnvBadPort(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	err = c.applyEnv(func(k string) (string, bool) {
		if k == "HTTP_PORT" {
			return "eighty", true
		}
		return "", false
	})
	assert.Error(t, err)
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("FRED_API_KEY", "from-env")
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := LoadWithEnv("")
	assert.Error(t, err, "unknown log level must fail validation")

	t.Setenv("LOG_LEVEL", "warn")
	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Sources.Fred.APIKey)
	assert.Equal(t, "warn", c.Log.Level)
}
