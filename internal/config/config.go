package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
// Credentials are never hardcoded — every backend identity comes from here.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Commerce backend (WooCommerce REST)
	WooBaseURL        string
	WooConsumerKey    string
	WooConsumerSecret string
	CatalogTimeout    time.Duration // read and write budget per request

	// AI enrichment service
	AIProvider       string // "agent" or "perplexity"
	AgentAPIURL      string
	PerplexityAPIURL string
	PerplexityAPIKey string
	PerplexityModel  string
	EnrichTimeout    time.Duration // the long pole of every run

	// Media host (WordPress REST, separate identity from WooCommerce)
	WPBaseURL     string
	WPUser        string
	WPAppPassword string
	MediaTimeout  time.Duration

	// Image downloads
	ImageTimeout time.Duration
	ImageWorkers int // max in-flight download/upload tasks per run

	// Pipeline policy
	StrictPersistence bool // update/attach failures flip overall success

	// Telegram front-end
	TelegramToken         string
	TelegramAllowedChatID int64
	TelegramWebhookSecret string

	// HTTP trigger auth
	APIJWTSecret string

	// Chat fallback resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Per-user chat variables
	VarsTTL time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WooBaseURL:        getEnv("WOO_BASE_URL", ""),
		WooConsumerKey:    getEnv("WOO_CONSUMER_KEY", ""),
		WooConsumerSecret: getEnv("WOO_CONSUMER_SECRET", ""),
		CatalogTimeout:    getEnvDuration("CATALOG_TIMEOUT", 15*time.Second),

		AIProvider:       getEnv("AI_PROVIDER", "agent"),
		AgentAPIURL:      getEnv("AGENT_API_URL", "http://localhost:8090"),
		PerplexityAPIURL: getEnv("PERPLEXITY_API_URL", "https://api.perplexity.ai"),
		PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityModel:  getEnv("PERPLEXITY_MODEL", "sonar"),
		EnrichTimeout:    getEnvDuration("ENRICH_TIMEOUT", 180*time.Second),

		WPBaseURL:     getEnv("WP_BASE_URL", ""),
		WPUser:        getEnv("WP_USER", ""),
		WPAppPassword: getEnv("WP_APP_PASSWORD", ""),
		MediaTimeout:  getEnvDuration("MEDIA_TIMEOUT", 30*time.Second),

		ImageTimeout: getEnvDuration("IMAGE_TIMEOUT", 30*time.Second),
		ImageWorkers: getEnvInt("IMAGE_WORKERS", 4),

		StrictPersistence: getEnv("STRICT_PERSISTENCE", "false") == "true",

		TelegramToken:         getEnv("TELEGRAM_TOKEN", ""),
		TelegramAllowedChatID: getEnvInt64("TELEGRAM_ALLOWED_CHAT_ID", 0),
		TelegramWebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),

		APIJWTSecret: getEnv("API_JWT_SECRET", ""),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		VarsTTL: getEnvDuration("VARS_TTL", 24*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
