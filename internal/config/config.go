package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              int
	DatabaseURL       string
	DBConnectTimeout  time.Duration
	NatsURL           string
	WebhookSecret     string
	MaxBodyBytes      int64
	LogLevel          string
	ShutdownTimeout   time.Duration
	SlackBotToken     string
	SlackAlertChannel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set take precedence.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:              envInt("INTERVIEWS_PORT", 8710),
		DatabaseURL:       envStr("DATABASE_URL", ""),
		DBConnectTimeout:  envMillis("DB_CONNECT_TIMEOUT_MS", 30000),
		NatsURL:           envStr("NATS_URL", ""),
		WebhookSecret:     envStr("RETELL_WEBHOOK_SECRET", ""),
		MaxBodyBytes:      int64(envInt("MAX_BODY_BYTES", 1<<20)),
		LogLevel:          envStr("LOG_LEVEL", "info"),
		ShutdownTimeout:   envMillis("SHUTDOWN_TIMEOUT_MS", 10000),
		SlackBotToken:     envStr("SLACK_BOT_TOKEN", ""),
		SlackAlertChannel: envStr("SLACK_ALERT_CHANNEL", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
