package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all service settings.
type Config struct {
	Port              string
	DBDSN             string
	WebhookURL        string
	WebhookTimeout    time.Duration
	DefaultSessionID  string
	BroadcastUnscoped bool
	AMQPURL           string
	AMQPExchange      string
	OTLPEndpoint      string
	Environment       string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	timeout, err := parseDurationEnv("WEBHOOK_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	unscoped, err := parseBoolEnv("BROADCAST_UNSCOPED", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DBDSN:             strings.TrimSpace(os.Getenv("DB_DSN")),
		WebhookURL:        strings.TrimSpace(os.Getenv("N8N_WEBHOOK_URL")),
		WebhookTimeout:    timeout,
		DefaultSessionID:  getEnv("DEFAULT_SESSION_ID", "default"),
		BroadcastUnscoped: unscoped,
		AMQPURL:           strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "chat_relay_events"),
		OTLPEndpoint:      strings.TrimSpace(os.Getenv("OTLP_ENDPOINT")),
		Environment:       getEnv("ENVIRONMENT", "development"),
	}

	if cfg.WebhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be positive, got %s", cfg.WebhookTimeout)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func parseBoolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
