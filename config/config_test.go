package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "GIN_MODE",
		"BRAINTREE_ENVIRONMENT", "BRAINTREE_MERCHANT_ID",
		"BRAINTREE_PUBLIC_KEY", "BRAINTREE_PRIVATE_KEY",
		"BRAINTREE_MERCHANT_ACCOUNTS", "BRAINTREE_PLANS",
		"SESSION_SECRET", "SESSION_TTL",
		"REDIS_ADDR", "REDIS_DB",
		"PAGES_DB_PATH", "PAGES_SEED_FILE",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, "sandbox", cfg.Gateway.Environment)
	assert.Equal(t, map[string]string{"usd": "donate-usd"}, cfg.Gateway.MerchantAccounts)
	assert.Equal(t, map[string]string{"usd": "donate-usd-monthly"}, cfg.Gateway.Plans)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "./data/pages.db", cfg.Pages.DBPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("BRAINTREE_ENVIRONMENT", "production")
	t.Setenv("BRAINTREE_MERCHANT_ID", "merchant-123")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "production", cfg.Gateway.Environment)
	assert.Equal(t, "merchant-123", cfg.Gateway.MerchantID)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, 45*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestMerchantAccountMapParsing(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRAINTREE_MERCHANT_ACCOUNTS", "USD:donate-usd, eur:donate-eur,malformed,:novalue,nokey:")

	cfg := Load()

	assert.Equal(t, map[string]string{
		"usd": "donate-usd",
		"eur": "donate-eur",
	}, cfg.Gateway.MerchantAccounts)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "whenever")

	cfg := Load()

	assert.Equal(t, time.Hour, cfg.Session.TTL)
}
