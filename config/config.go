package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddress string
	PostgresConn  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	SessionTTL    time.Duration
	QuoteValidity time.Duration
	NotifyStream  string

	RunMigrations bool
	SeedTaxonomy  bool
	SecureCookies bool

	// AdminEmail and AdminPassword, when both set, bootstrap an approved
	// admin account at start-up.
	AdminEmail    string
	AdminPassword string
}

// Load reads the configuration from the environment. POSTGRES_CONN is the
// only required variable.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
		PostgresConn:  os.Getenv("POSTGRES_CONN"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		QuoteValidity: getEnvDuration("QUOTE_VALIDITY", 7*24*time.Hour),
		NotifyStream:  getEnv("NOTIFY_STREAM", "marketplace:notifications"),
		RunMigrations: getEnvBool("RUN_MIGRATIONS", true),
		SeedTaxonomy:  getEnvBool("SEED_TAXONOMY", true),
		SecureCookies: getEnvBool("SECURE_COOKIES", false),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if cfg.PostgresConn == "" {
		return nil, errors.New("POSTGRES_CONN is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration accepts Go durations ("36h") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
