package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	RedisURL         string
	JWTSecret        string
	GenerateAPIKey   string
	GenerateBaseURL  string
	GenerateModel    string
	HostingAPIKey    string
	HostingBaseURL   string
	HostingFolder    string
	StatusTTL        time.Duration
	WorkerBatchSize  int
	WorkerPollEvery  time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	WorkerRunToken   string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		GenerateAPIKey:   os.Getenv("GENERATE_API_KEY"),
		GenerateBaseURL:  getEnv("GENERATE_BASE_URL", "https://api.imagine.example.com/v1"),
		GenerateModel:    getEnv("GENERATE_MODEL", "flux-schnell"),
		HostingAPIKey:    os.Getenv("HOSTING_API_KEY"),
		HostingBaseURL:   getEnv("HOSTING_BASE_URL", "https://api.imghost.example.com/v1"),
		HostingFolder:    getEnv("HOSTING_FOLDER", "thumbnails"),
		StatusTTL:        time.Second * time.Duration(getEnvInt("STATUS_TTL_SECONDS", 3600)),
		WorkerBatchSize:  getEnvInt("WORKER_BATCH_SIZE", 3),
		WorkerPollEvery:  time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 2)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		WorkerRunToken:   os.Getenv("WORKER_RUN_TOKEN"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.WorkerBatchSize <= 0 {
		cfg.WorkerBatchSize = 3
	}

	return cfg, nil
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
