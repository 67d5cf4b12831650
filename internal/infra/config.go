package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Budgets groups the timing constants that govern one generation job's
// supervision. Values are behavioral contract: clients built against the
// hosted service assume exactly these defaults.
type Budgets struct {
	// Total is the full lifetime granted to one job before it is treated
	// as expired.
	Total time.Duration
	// PollDelay is how long after submission the first status poll runs.
	// Generation typically takes this long, so earlier polls are wasted.
	PollDelay time.Duration
	// PollInterval is the cadence of status polls after PollDelay.
	PollInterval time.Duration
	// CountdownTick is the cadence of remaining-time recomputation.
	CountdownTick time.Duration
	// Lookback is the reconciliation window: artifacts and job records
	// older than this are not considered matches for an in-flight claim.
	Lookback time.Duration
}

// DefaultBudgets returns the production timing contract.
func DefaultBudgets() Budgets {
	return Budgets{
		Total:         2340 * time.Second,
		PollDelay:     1800 * time.Second,
		PollInterval:  60 * time.Second,
		CountdownTick: time.Second,
		Lookback:      900 * time.Second,
	}
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	UploadPath       string
	GeoIPDBPath      string
	GenerationURL    string
	BlotatoBaseURL   string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	SessionTTL       time.Duration
	SweepInterval    time.Duration
	Budgets          Budgets
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		UploadPath:       getEnv("UPLOAD_PATH", "./uploads"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		GenerationURL:    os.Getenv("GENERATION_WEBHOOK_URL"),
		BlotatoBaseURL:   getEnv("BLOTATO_BASE_URL", "https://backend.blotato.com/v2"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		SessionTTL:       time.Second * time.Duration(getEnvInt("SESSION_TTL_SECONDS", 3600)),
		SweepInterval:    time.Second * time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 300)),
		Budgets:          DefaultBudgets(),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.GenerationURL == "" {
		return nil, fmt.Errorf("GENERATION_WEBHOOK_URL is required")
	}

	return cfg, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
