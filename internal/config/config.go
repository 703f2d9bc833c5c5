package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StorageDriver selects the key-value backend used for local persistence.
type StorageDriver string

const (
	StorageSQLite StorageDriver = "sqlite"
	StorageRedis  StorageDriver = "redis"
	StorageMemory StorageDriver = "memory"
)

// Config holds all application configuration.
type Config struct {
	ServerHost     string
	ServerPort     string
	GinMode        string
	LogLevel       string
	LogFormat      string
	StorageDriver  StorageDriver
	SQLitePath     string
	RedisURL       string
	RedisKeyPrefix string
	// TickInterval is the wall-clock length of one countdown tick.
	// Only tests and demos should shorten it.
	TickInterval time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerHost:     getEnv("SERVER_HOST", "127.0.0.1"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		StorageDriver:  parseDriver(getEnv("STORAGE_DRIVER", string(StorageSQLite))),
		SQLitePath:     getEnv("SQLITE_PATH", "./exstem.db"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "exstem:"),
		TickInterval:   time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

// Addr returns the host:port pair the HTTP server listens on.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseDriver normalizes STORAGE_DRIVER; unknown values fall back to sqlite.
func parseDriver(raw string) StorageDriver {
	switch d := StorageDriver(strings.ToLower(strings.TrimSpace(raw))); d {
	case StorageSQLite, StorageRedis, StorageMemory:
		return d
	default:
		return StorageSQLite
	}
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
