// Package config reads server settings from the environment and the route
// catalog from an optional YAML file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Addr         string
	StoreBackend string
	DBPath       string
	RedisURL     string
	TokenSecret  string
	TokenTTL     time.Duration
	AdminEmails  []string
	// CatalogPath is a YAML route catalog; empty means the built-in one.
	CatalogPath string
	LogLevel    string
	LogFormat   string
}

func Load() Config {
	return Config{
		Addr:         getenv("API_ADDR", ":8080"),
		StoreBackend: strings.ToLower(getenv("STORE_BACKEND", BackendSQLite)),
		DBPath:       getenv("DB_PATH", "./data/board.db"),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379/0"),
		TokenSecret:  getenv("TOKEN_SECRET", "trash-tracker-dev-secret"),
		TokenTTL:     time.Duration(getenvInt("TOKEN_TTL_HOURS", 24*30)) * time.Hour,
		AdminEmails:  splitList(getenv("ADMIN_EMAILS", "")),
		CatalogPath:  getenv("ROUTE_CATALOG", ""),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
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

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
