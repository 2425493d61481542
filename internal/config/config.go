package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
)

type Config struct {
	Port string
	Env  string

	StorageBackend string
	DatabaseURL    string
	SQLitePath     string
	DataFile       string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	SaveDebounce time.Duration
	SavePolicy   persist.Policy
	Thresholds   capacity.Thresholds
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	accessExpiry, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	debounce, err := time.ParseDuration(getEnv("SAVE_DEBOUNCE", "200ms"))
	if err != nil || debounce <= 0 {
		debounce = persist.DefaultDelay
	}

	policy, err := loadPolicy()
	if err != nil {
		return nil, err
	}

	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendFile),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "data/planner.db"),
		DataFile:       getEnv("DATA_FILE", "data/db.json"),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: accessExpiry,

		SaveDebounce: debounce,
		SavePolicy:   policy,
		Thresholds:   thresholds,
	}

	switch cfg.StorageBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	case BackendSQLite, BackendFile:
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func loadPolicy() (persist.Policy, error) {
	policy := persist.DefaultPolicy()
	for mutation, key := range map[persist.Mutation]string{
		persist.Create: "SAVE_POLICY_CREATE",
		persist.Update: "SAVE_POLICY_UPDATE",
		persist.Delete: "SAVE_POLICY_DELETE",
	} {
		raw := getEnv(key, "")
		if raw == "" {
			continue
		}
		strategy, err := persist.ParseStrategy(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		policy[mutation] = strategy
	}
	return policy, nil
}

func loadThresholds() (capacity.Thresholds, error) {
	th := capacity.DefaultThresholds

	under, err := getEnvFloat("UNDER_THRESHOLD", th.Under)
	if err != nil {
		return th, err
	}
	over, err := getEnvFloat("OVER_THRESHOLD", th.Over)
	if err != nil {
		return th, err
	}
	if under > over {
		return th, fmt.Errorf("UNDER_THRESHOLD (%v) must not exceed OVER_THRESHOLD (%v)", under, over)
	}
	mode, err := capacity.ParseMode(getEnv("THRESHOLD_MODE", ""))
	if err != nil {
		return th, fmt.Errorf("THRESHOLD_MODE: %w", err)
	}

	th.Under, th.Over, th.Mode = under, over, mode
	return th, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}
