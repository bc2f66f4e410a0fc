package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  postgres:
    host: localhost
    port: 5432
    user: orderflow
    dbname: orderflow
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.PollTimeout)
	assert.Equal(t, "https://fakestoreapi.com", cfg.Enrichment.BaseURL)
	assert.Equal(t, 3, cfg.Enrichment.Retry.MaxAttempts)
	assert.Equal(t, "orderflow:orders", cfg.Source.Queue)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
}

func TestLoadConfig_Explicit(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
pipeline:
  workers: 8
  max_retries: 5
  poll_timeout: 250ms
enrichment:
  base_url: http://catalog.internal
  timeout: 2s
source:
  type: redis
  queue: orders:incoming
  poll_timeout: 2s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 5, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.PollTimeout)
	assert.Equal(t, "http://catalog.internal", cfg.Enrichment.BaseURL)
	assert.Equal(t, "redis", cfg.Source.Type)
	assert.Equal(t, "orders:incoming", cfg.Source.Queue)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_InvalidSourceType(t *testing.T) {
	path := writeConfigFile(t, `
source:
  type: rabbitmq
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.type")
}

func TestLoadConfig_KafkaSourceRequiresBrokers(t *testing.T) {
	path := writeConfigFile(t, `
source:
  type: kafka
  kafka:
    topic: orders
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.kafka.brokers")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidatePipeline(t *testing.T) {
	err := validatePipeline(PipelineConfig{Workers: 0, MaxRetries: 1, PollTimeout: time.Second})
	require.Error(t, err)

	err = validatePipeline(PipelineConfig{Workers: 2, MaxRetries: -1, PollTimeout: time.Second})
	require.Error(t, err)

	err = validatePipeline(PipelineConfig{Workers: 2, MaxRetries: 0, PollTimeout: time.Second})
	require.NoError(t, err)
}
