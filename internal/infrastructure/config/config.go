package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceStore = "store"
	SourceHTTP  = "http"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration
	LogLevel        slog.Level

	// Catalog
	DatabasePath   string
	CatalogSource  string // "store" or "http"
	CatalogURL     string // exercises API base URL, required for "http"
	CatalogTimeout time.Duration
	SeedFile       string // YAML imported into an empty store at startup

	// Identity
	JWTSecret string

	// Exercise sessions
	SubmitDelay        time.Duration
	SubmitWorkers      int
	SessionIdleTimeout time.Duration

	CORSOrigins []string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	cfg := &Config{
		ServerAddress:      mustGetenv("SERVER_ADDRESS"),
		ShutdownTimeout:    mustGetDuration("SHUTDOWN_TIMEOUT"),
		LogLevel:           getLogLevel("LOG_LEVEL"),
		DatabasePath:       getenvDefault("DATABASE_PATH", "portal.db"),
		CatalogSource:      strings.ToLower(getenvDefault("CATALOG_SOURCE", SourceStore)),
		CatalogURL:         os.Getenv("CATALOG_URL"),
		CatalogTimeout:     getDurationDefault("CATALOG_TIMEOUT", 10*time.Second),
		SeedFile:           os.Getenv("SEED_FILE"),
		JWTSecret:          mustGetenv("JWT_SECRET"),
		SubmitDelay:        getDurationDefault("SUBMIT_DELAY", 500*time.Millisecond),
		SubmitWorkers:      getIntDefault("SUBMIT_WORKERS", 4),
		SessionIdleTimeout: getDurationDefault("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CORSOrigins:        getList("CORS_ORIGINS"),
	}

	switch cfg.CatalogSource {
	case SourceStore:
	case SourceHTTP:
		if cfg.CatalogURL == "" {
			log.Fatalf("config: CATALOG_URL is required when CATALOG_SOURCE=%s", SourceHTTP)
		}
	default:
		log.Fatalf("config: CATALOG_SOURCE=%q must be %q or %q", cfg.CatalogSource, SourceStore, SourceHTTP)
	}
	return cfg
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func mustGetDuration(k string) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getIntDefault(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		log.Fatalf("config: %s=%q must be a positive integer", k, v)
	}
	return n
}

func getLogLevel(k string) slog.Level {
	var level slog.Level
	v := os.Getenv(k)
	if v == "" {
		return slog.LevelInfo
	}
	if err := level.UnmarshalText([]byte(v)); err != nil {
		log.Fatalf("config: %s=%q is not a valid log level: %v", k, v, err)
	}
	return level
}

// getList splits a comma-separated value, dropping empty entries.
func getList(k string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(k), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
