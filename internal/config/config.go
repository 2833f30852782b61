package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	DatabasePath   string
	JWTSecret      string
	TokenTTL       time.Duration
	PageSize       int
	LogLevel       string
	LogPretty      bool
	CORSOrigins    []string
	SeedAmenities  bool
	EnforceOwner   bool // Reject mutations of listings the caller does not host
	Production     bool
	ShutdownPeriod time.Duration
	EventRetention time.Duration // Zero disables pruning
	PruneSchedule  string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("PORT", 8000)
	if err != nil {
		return nil, err
	}
	pageSize, err := getInt("PAGE_SIZE", 10)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive, got %d", pageSize)
	}
	ttl, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	retention, err := getDuration("EVENT_RETENTION", 720*time.Hour)
	if err != nil {
		return nil, err
	}
	if retention < 0 {
		return nil, fmt.Errorf("EVENT_RETENTION must not be negative, got %s", retention)
	}
	pretty, err := getBool("LOG_PRETTY", true)
	if err != nil {
		return nil, err
	}
	seed, err := getBool("SEED_AMENITIES", true)
	if err != nil {
		return nil, err
	}
	enforce, err := getBool("ENFORCE_LISTING_OWNERSHIP", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:     port,
		DatabasePath:   getEnv("DATABASE_PATH", "./travel.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       ttl,
		PageSize:       pageSize,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      pretty,
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		SeedAmenities:  seed,
		EnforceOwner:   enforce,
		Production:     getEnv("APP_ENV", "development") == "production",
		ShutdownPeriod: 5 * time.Second,
		EventRetention: retention,
		PruneSchedule:  getEnv("EVENT_PRUNE_SCHEDULE", "@hourly"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Production {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "insecure-development-secret"
	}
	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
