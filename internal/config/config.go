package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DBDSN         string
	SettingsFile  string
	JWTSecret     string
	TokenTTL      time.Duration
	APIPassphrase string
	CORSOrigins   []string
	BlockSitesCmd string
	LogLevel      string
	WatchSettings bool
}

// Load reads the environment, after merging an optional .env file from the
// working directory.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	return Config{
		Port:          getEnv("PORT", "8080"),
		DBDSN:         getEnv("DB_DSN", "./data/juststart.db"),
		SettingsFile:  getEnv("SETTINGS_FILE", defaultSettingsPath()),
		JWTSecret:     getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		APIPassphrase: os.Getenv("API_PASSPHRASE"),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		BlockSitesCmd: os.Getenv("BLOCK_SITES_CMD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		WatchSettings: getEnvBool("WATCH_SETTINGS", true),
	}
}

func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
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

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		slog.Warn("invalid boolean value, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
