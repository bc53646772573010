package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"dirhub.app/server/core/db"
)

type Config struct {
	Env     string
	Port    string
	OTel    OTelConfig
	GitHub  GitHubConfig
	Cache   CacheConfig
	Webhook WebhookConfig
	DB      db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type GitHubConfig struct {
	// Token authenticates provider API calls made on behalf of the server.
	// Per-user tokens arrive with the request identity in production; the
	// server token is the fallback for development.
	Token   string
	BaseURL string
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type WebhookConfig struct {
	// BaseURL is the externally reachable URL GitHub delivers to.
	BaseURL string
}

// Load loads configuration from environment variables. In development it
// reads .env first so local runs need no exported variables.
func Load() (Config, error) {
	if getEnv("DIRHUB_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:  getEnv("DIRHUB_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Headers:        getEnv("OTEL_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "dirhub-server"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		GitHub: GitHubConfig{
			Token:   getEnv("GITHUB_TOKEN", ""),
			BaseURL: getEnv("GITHUB_BASE_URL", ""),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
		Webhook: WebhookConfig{
			BaseURL: getEnv("WEBHOOK_BASE_URL", ""),
		},
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
	}

	if cfg.DB.DSN == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
