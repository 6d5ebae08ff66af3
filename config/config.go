// Package config handles loading and managing application configuration.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Payment gateway credentials and account routing
	Gateway GatewayConfig

	// Donation session cookies and storage
	Session SessionConfig

	// Redis, backing sessions and the task queue
	Redis RedisConfig

	// Content page store
	Pages PagesConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// GatewayConfig holds the Braintree API credentials plus the per-currency
// routing tables: which merchant account receives a charge and which plan a
// monthly donation subscribes to.
type GatewayConfig struct {
	Environment      string // "sandbox" or "production"
	MerchantID       string
	PublicKey        string
	PrivateKey       string
	MerchantAccounts map[string]string // currency -> merchant account id
	Plans            map[string]string // currency -> subscription plan id
}

// SessionConfig holds the signing secret and lifetime for donation session
// cookies.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

// RedisConfig holds the Redis connection settings. An empty Addr switches
// sessions and the task queue to in-process fallbacks, for local development.
type RedisConfig struct {
	Addr string
	DB   int
}

// PagesConfig holds the SQLite content store settings.
type PagesConfig struct {
	DBPath   string
	SeedFile string // optional JSON fixture loaded at startup
}

// Load reads configuration from environment variables.
// Returns a Config struct with all settings populated.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Gateway: GatewayConfig{
			Environment:      getEnv("BRAINTREE_ENVIRONMENT", "sandbox"),
			MerchantID:       getEnv("BRAINTREE_MERCHANT_ID", ""),
			PublicKey:        getEnv("BRAINTREE_PUBLIC_KEY", ""),
			PrivateKey:       getEnv("BRAINTREE_PRIVATE_KEY", ""),
			MerchantAccounts: getEnvMap("BRAINTREE_MERCHANT_ACCOUNTS", "usd:donate-usd"),
			Plans:            getEnvMap("BRAINTREE_PLANS", "usd:donate-usd-monthly"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			TTL:    getEnvDuration("SESSION_TTL", time.Hour),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
			DB:   getEnvInt("REDIS_DB", 0),
		},
		Pages: PagesConfig{
			DBPath:   getEnv("PAGES_DB_PATH", "./data/pages.db"),
			SeedFile: getEnv("PAGES_SEED_FILE", ""),
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration retrieves an environment variable as a Go duration string
// ("30m", "1h") with a fallback.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvMap retrieves an environment variable holding comma-separated
// key:value pairs, e.g. "usd:donate-usd,eur:donate-eur". Keys are lowercased;
// malformed entries are skipped.
func getEnvMap(key, defaultValue string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(getEnv(key, defaultValue), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || k == "" || v == "" {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out
}
