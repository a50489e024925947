// Package config provides configuration management for the coin ledger.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Schedule  ScheduleConfig
	Retention RetentionConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// URL returns the connection URL used by golang-migrate
func (c *PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds per-tier request rates (requests per second)
type RateLimitConfig struct {
	FreeTier int
	PaidTier int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ScheduleConfig holds cron specs (with seconds field) for the worker jobs
type ScheduleConfig struct {
	Alerts    string
	Prices    string
	Snapshots string
	Retention string
}

// RetentionConfig holds snapshot retention in days per tier
type RetentionConfig struct {
	FreeTierDays int
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional, variables may be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "coin_ledger"),
				User:           getEnv("POSTGRES_USER", "ledger"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			FreeTier: getEnvAsInt("RATE_LIMIT_FREE_TIER", 10),
			PaidTier: getEnvAsInt("RATE_LIMIT_PAID_TIER", 100),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Schedule: ScheduleConfig{
			Alerts:    getEnv("SCHEDULE_ALERTS", "0 * * * * *"),
			Prices:    getEnv("SCHEDULE_PRICES", "30 */5 * * * *"),
			Snapshots: getEnv("SCHEDULE_SNAPSHOTS", "0 5 0 * * *"),
			Retention: getEnv("SCHEDULE_RETENTION", "0 30 1 * * *"),
		},
		Retention: RetentionConfig{
			FreeTierDays: getEnvAsInt("SNAPSHOT_RETENTION_DAYS_FREE", 365),
		},
	}

	if config.Database.Postgres.MaxConnections <= 0 {
		return nil, fmt.Errorf("POSTGRES_MAX_CONNECTIONS must be positive, got %d", config.Database.Postgres.MaxConnections)
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
