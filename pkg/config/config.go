package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Snapshot store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds server configuration.
type Config struct {
	Port     string
	LogLevel string

	SnapshotBackend       string
	DatabaseURL           string
	SQLitePath            string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	SnapshotWriteAttempts int

	RulesSource    string
	AWSRegion      string
	S3Endpoint     string
	PhasesFile     string
	ThresholdsFile string

	OTelEnabled  bool
	OTelEndpoint string
	OTelInsecure bool

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load loads configuration from environment variables. Malformed numbers
// fall back to their defaults; Validate reports inconsistent settings.
func Load() *Config {
	return &Config{
		Port:     envOr("PORT", "8080"),
		LogLevel: strings.ToUpper(envOr("LOG_LEVEL", "INFO")),

		SnapshotBackend:       strings.ToLower(envOr("SNAPSHOT_BACKEND", BackendSQLite)),
		DatabaseURL:           envOr("DATABASE_URL", "postgres://apex@localhost:5432/apex?sslmode=disable"),
		SQLitePath:            envOr("SQLITE_PATH", "data/apex.db"),
		RedisAddr:             envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               envInt("REDIS_DB", 0),
		SnapshotWriteAttempts: envInt("SNAPSHOT_WRITE_ATTEMPTS", 3),

		RulesSource:    os.Getenv("RULES_SOURCE"),
		AWSRegion:      envOr("AWS_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		PhasesFile:     os.Getenv("PHASES_FILE"),
		ThresholdsFile: os.Getenv("THRESHOLDS_FILE"),

		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTelEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelInsecure: os.Getenv("OTEL_INSECURE") != "false",

		RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 20),
	}
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.SnapshotBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("config: rate limit must be positive (rps=%v burst=%d)", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.SnapshotWriteAttempts < 1 {
		return fmt.Errorf("config: SNAPSHOT_WRITE_ATTEMPTS must be at least 1")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}
