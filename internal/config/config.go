package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// ClickHouse warehouse
	ClickHouse ClickHouseConfig

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Sync pipeline
	BatchSize    int
	WorkerCount  int
	QueueSize    int
	SyncInterval time.Duration
	ProbeTimeout time.Duration

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int
}

// ClickHouseConfig holds warehouse connection settings
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ClickHouse: ClickHouseConfig{
			Addr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("CLICKHOUSE_DATABASE", "default"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		Port:               getEnv("PORT", "8080"),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		BatchSize:          getEnvInt("SYNC_BATCH_SIZE", 10000),
		WorkerCount:        getEnvInt("SYNC_WORKERS", 4),
		QueueSize:          getEnvInt("SYNC_QUEUE_SIZE", 16),
		SyncInterval:       getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		ProbeTimeout:       getEnvDuration("PROBE_TIMEOUT", 5*time.Second),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 10),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ClickHouse.Addr == "" {
		return fmt.Errorf("CLICKHOUSE_ADDR is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be positive")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("SYNC_WORKERS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
