package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_key")
	t.Setenv("CHECKOUT_SUCCESS_URL", "https://shop.example/checkout?result=success")
	t.Setenv("CHECKOUT_CANCEL_URL", "https://shop.example/checkout")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, time.Duration(0), cfg.SnapshotTTL)
	assert.Equal(t, 3*time.Second, cfg.ClearDelay)
	assert.False(t, cfg.SessionStoreEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_MissingSecretKey(t *testing.T) {
	t.Setenv("CHECKOUT_SUCCESS_URL", "https://shop.example/ok")
	t.Setenv("CHECKOUT_CANCEL_URL", "https://shop.example/cancel")

	_, err := Load()
	assert.ErrorContains(t, err, "STRIPE_SECRET_KEY")
}

func TestLoad_MissingURLs(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_key")

	_, err := Load()
	assert.ErrorContains(t, err, "CHECKOUT_SUCCESS_URL")
}

func TestLoad_UnknownBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "cassandra")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestLoad_RedisBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("SNAPSHOT_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.SnapshotTTL)
}

func TestLoad_KafkaBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_PostgresEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.SessionStoreEnabled())
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, "postgres", cfg.PostgresUser)
}
