package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Market data provider
	Data DataConfig

	// NLU / LLM
	LLM LLMConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DataConfig selects and configures the snapshot provider backend.
type DataConfig struct {
	// Provider is "postgres" or "local" (CSV files in DataDir).
	Provider string
	DataDir  string
}

// LLMConfig holds configuration for the prompt-parsing LLM client.
type LLMConfig struct {
	// Provider is "gemini" or "openllm".
	Provider string
	APIKey   string
	BaseURL  string
	Model    string

	// RequestsPerMinute caps outbound calls to the provider.
	RequestsPerMinute int
}

// SchedulerConfig controls the background freshness job.
type SchedulerConfig struct {
	Enabled  bool
	CronSpec string
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Data: DataConfig{
			Provider: getEnv("DATA_PROVIDER", "local"),
			DataDir:  getEnv("LOCAL_DATA_DIR", "data"),
		},

		LLM: LLMConfig{
			Provider:          getEnv("LLM_PROVIDER", "gemini"),
			APIKey:            getEnv("LLM_API_KEY", ""),
			BaseURL:           getEnv("LLM_BASE_URL", ""),
			Model:             getEnv("LLM_MODEL", "gemini-2.0-flash"),
			RequestsPerMinute: getEnvAsInt("LLM_REQUESTS_PER_MINUTE", 30),
		},

		Scheduler: SchedulerConfig{
			Enabled:  getEnvAsBool("FRESHNESS_CHECK_ENABLED", false),
			CronSpec: getEnv("FRESHNESS_CHECK_CRON", "0 7 * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Provider {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATA_PROVIDER=postgres")
		}
	case "local":
		if c.Data.DataDir == "" {
			return fmt.Errorf("LOCAL_DATA_DIR is required when DATA_PROVIDER=local")
		}
	default:
		return fmt.Errorf("DATA_PROVIDER must be one of: postgres, local")
	}

	if c.LLM.Provider != "gemini" && c.LLM.Provider != "openllm" {
		return fmt.Errorf("LLM_PROVIDER must be one of: gemini, openllm")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key, fallback string) time.Duration {
	value := getEnv(key, fallback)
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	parsed, _ := time.ParseDuration(fallback)
	return parsed
}
