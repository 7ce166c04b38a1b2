// Package config loads LeadPipe's process-wide configuration.
//
// Configuration is read once at startup from the environment (with .env
// support) into an explicit Config value that is passed by reference into
// constructors. Nothing in this package is ambient mutable state.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the process.
type Config struct {
	LogLevel string

	// DBDriver selects the store backend: "sqlite3" or "postgres".
	DBDriver string
	// DBDSN is the SQLite file path or Postgres connection URL.
	DBDSN string

	UserAgent    string
	RequestDelay time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string

	Country string

	// APIAddr is the dashboard listen address for the serve command.
	APIAddr string
	// SendSchedule is the cron expression the serve command flushes due
	// emails on.
	SendSchedule string
	// StateDir holds the lock file (and the SQLite database by default).
	StateDir string
}

// Load reads configuration from the environment, loading .env first when
// present. Missing keys fall back to defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config.Load: no .env file loaded", "error", err)
	}

	stateDir := getEnv("LEADPIPE_STATE_DIR", "./data")

	return &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:        getEnv("DB_DSN", stateDir+"/leadpipe.db"),
		UserAgent:    getEnv("USER_AGENT", "LeadPipeBot/1.0 (+https://example.com)"),
		RequestDelay: getEnvAsDuration("REQUEST_DELAY_SEC", 1),
		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_APP_PASSWORD", ""),
		FromName:     getEnv("FROM_NAME", ""),
		FromEmail:    getEnv("FROM_EMAIL", ""),
		Country:      getEnv("COUNTRY", "United States"),
		APIAddr:      getEnv("API_ADDR", ":8080"),
		SendSchedule: getEnv("SEND_SCHEDULE", "*/5 * * * *"),
		StateDir:     stateDir,
	}
}

// SlogLevel maps the configured log level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return time.Duration(value * float64(time.Second))
	}
	return time.Duration(fallbackSeconds) * time.Second
}
