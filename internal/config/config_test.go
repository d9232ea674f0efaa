package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoadSQLiteDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "sqlite")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "cinema.db", cfg.SQLitePath)
	assert.Equal(t, 10, cfg.OpeningHour)
	assert.Equal(t, 23, cfg.ClosingHour)
	assert.Equal(t, 5, cfg.LedgerMaxRetries)
	assert.Equal(t, 5*time.Millisecond, cfg.LedgerRetryBackoff)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 15, cfg.AccessTTLMin)
}

func TestLoadScheduleOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CINEMA_TZ", "Europe/Paris")
	t.Setenv("OPENING_HOUR", "9")
	t.Setenv("CLOSING_HOUR", "24")
	t.Setenv("LEDGER_MAX_RETRIES", "0")

	cfg := Load()
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "Europe/Paris", cfg.Location.String())
	assert.Equal(t, 9, cfg.OpeningHour)
	assert.Equal(t, 24, cfg.ClosingHour)
	assert.Equal(t, 1, cfg.LedgerMaxRetries)
}

func TestRabbitURLPrecedence(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://a")
	assert.Equal(t, "amqp://a", rabbitURL())
	t.Setenv("RABBITMQ_URL", "amqp://b")
	assert.Equal(t, "amqp://b", rabbitURL())
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 2*time.Second, rl.RefillInterval)
	assert.Equal(t, 10*time.Second, rl.TTL)

	booking := LoadBookingRateLimitConfig()
	assert.Equal(t, "rl:booking", booking.Prefix)
	assert.Equal(t, "user", booking.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "1m")
	cc := LoadCacheConfig()
	assert.True(t, cc.Methods["GET"])
	assert.True(t, cc.Methods["HEAD"])
	assert.Equal(t, time.Minute, cc.TTL)
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "other:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")
	rc := LoadRedisConfig()
	assert.Equal(t, "cache:6380", rc.Addr)
	assert.True(t, rc.TLS)
}
