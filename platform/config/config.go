// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StoreConfig selects the persistence backend.
type StoreConfig interface {
	GetStoreDriver() string
	UseMemoryStore() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetNextLeadRatePerMinute() int
}

// CronConfig provides the shared secret for internal cron endpoints.
type CronConfig interface {
	GetInternalAPISecret() string
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// DialerConfig provides the lead lifecycle tunables.
type DialerConfig interface {
	GetLeaseDuration() time.Duration
	GetRetryCeiling() int
	GetReaperInterval() time.Duration
	GetReaperBatchSize() int
}

// ImportConfig provides settings for bulk lead import.
type ImportConfig interface {
	GetDefaultPhoneRegion() string
	GetDefaultCampaign() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	StoreDriver           string
	DatabaseURL           string
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	NextLeadRatePerMinute int
	InternalAPISecret     string
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	LeaseDuration         time.Duration
	RetryCeiling          int
	ReaperInterval        time.Duration
	ReaperBatchSize       int
	DefaultPhoneRegion    string
	DefaultCampaign       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// StoreConfig implementation
func (c *Config) GetStoreDriver() string { return c.StoreDriver }
func (c *Config) UseMemoryStore() bool   { return c.StoreDriver == StoreDriverMemory }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string           { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool         { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string      { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool       { return c.CORSAllowCreds }
func (c *Config) GetNextLeadRatePerMinute() int { return c.NextLeadRatePerMinute }

// CronConfig implementation
func (c *Config) GetInternalAPISecret() string { return c.InternalAPISecret }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// DialerConfig implementation
func (c *Config) GetLeaseDuration() time.Duration  { return c.LeaseDuration }
func (c *Config) GetRetryCeiling() int             { return c.RetryCeiling }
func (c *Config) GetReaperInterval() time.Duration { return c.ReaperInterval }
func (c *Config) GetReaperBatchSize() int          { return c.ReaperBatchSize }

// ImportConfig implementation
func (c *Config) GetDefaultPhoneRegion() string { return c.DefaultPhoneRegion }
func (c *Config) GetDefaultCampaign() string    { return c.DefaultCampaign }

// IsProduction reports whether the service runs with production guards.
func (c *Config) IsProduction() bool { return strings.EqualFold(c.Env, "production") }

const (
	// StoreDriverPostgres persists state in PostgreSQL via pgx.
	StoreDriverPostgres = "postgres"
	// StoreDriverMemory keeps state in process; intended for local runs and demos.
	StoreDriverMemory = "memory"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		StoreDriver:           strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		NextLeadRatePerMinute: mustInt(getEnv("NEXT_LEAD_RATE_PER_MINUTE", "120")),
		InternalAPISecret:     getEnv("INTERNAL_API_SECRET", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		LeaseDuration:         mustDuration(getEnv("LEASE_DURATION", "60s")),
		RetryCeiling:          mustInt(getEnv("RETRY_CEILING", "6")),
		ReaperInterval:        mustDuration(getEnv("REAPER_INTERVAL", "2m")),
		ReaperBatchSize:       mustInt(getEnv("REAPER_BATCH_SIZE", "50")),
		DefaultPhoneRegion:    strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		DefaultCampaign:       getEnv("DEFAULT_CAMPAIGN", "wave1"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.IsProduction() && cfg.InternalAPISecret == "" {
		return nil, fmt.Errorf("INTERNAL_API_SECRET is required in production")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.LeaseDuration <= 0 {
		return nil, fmt.Errorf("LEASE_DURATION must be a positive duration")
	}
	if cfg.RetryCeiling < 0 {
		return nil, fmt.Errorf("RETRY_CEILING must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
