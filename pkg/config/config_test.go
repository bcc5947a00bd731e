package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, time.Hour, c.Refresh.Interval)
	assert.Equal(t, 5*time.Minute, c.Refresh.RetryInterval)
	assert.Equal(t, time.Hour, c.Cache.MaxAge)
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA"}, c.Tickers.Monitored)
	assert.Equal(t, 20, c.Evaluation.TestSize)
	assert.Equal(t, 10000.0, c.Evaluation.InitialCapital)
	assert.NoError(t, c.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
server:
  port: 9090
cache:
  ttl:
    signals: 5m
tickers:
  monitored: [NVDA]
`))
	require.NoError(t, err)
	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 5*time.Minute, c.Cache.TTL.Signals)
	assert.Equal(t, time.Hour, c.Cache.TTL.Forecast)
	assert.Equal(t, []string{"NVDA"}, c.Tickers.Monitored)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Cache.Backend = "redis"
	assert.Error(t, c.Validate())

	c = Default()
	c.Sentiment.Provider = "http"
	assert.Error(t, c.Validate())

	c = Default()
	c.Kafka.Enabled = true
	assert.Error(t, c.Validate())

	c = Default()
	c.Tickers.Monitored = nil
	assert.Error(t, c.Validate())
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"TICKERS":               "aapl, msft",
		"KAFKA_BROKERS":         "k1:9092,k2:9092",
		"REDIS_ADDR":            "redis:6379",
		"SENTIMENT_SERVICE_URL": "http://sentiment",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"aapl", "msft"}, c.Tickers.Monitored)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "http", c.Sentiment.Provider)
	assert.NoError(t, c.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
}
