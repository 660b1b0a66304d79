package config

import (
	"fmt"
	"time"

	"github.com/utafrali/FocusGate/internal/lock"
	pkgconfig "github.com/utafrali/FocusGate/pkg/config"
	"github.com/utafrali/FocusGate/pkg/database"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

const minJWTSecretLength = 32

// Config holds all configuration for the FocusGate service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"FOCUSGATE_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"focusgate"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"focusgate_secret"`
	PostgresDB   string `env:"FOCUSGATE_DB_NAME" envDefault:"focusgate"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Per-user lock
	LockBackend string        `env:"LOCK_BACKEND" envDefault:"local"`
	LockTTL     time.Duration `env:"LOCK_TTL" envDefault:"5s"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Auth
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:""`

	// Gating
	ProgressionTimezone string        `env:"PROGRESSION_TIMEZONE" envDefault:"UTC"`
	UnlockSweepInterval time.Duration `env:"UNLOCK_SWEEP_INTERVAL" envDefault:"30s"`
	GenerateRatePerMin  int           `env:"GENERATE_RATE_PER_MINUTE" envDefault:"20"`
	GenerateBurst       int           `env:"GENERATE_BURST" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load focusgate config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case StoragePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}
	switch c.LockBackend {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("LOCK_BACKEND must be %q or %q, got %q", LockLocal, LockRedis, c.LockBackend)
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be > 0, got %s", c.LockTTL)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.UnlockSweepInterval <= 0 {
		return fmt.Errorf("UNLOCK_SWEEP_INTERVAL must be > 0, got %s", c.UnlockSweepInterval)
	}
	if c.GenerateRatePerMin <= 0 || c.GenerateBurst <= 0 {
		return fmt.Errorf("GENERATE_RATE_PER_MINUTE and GENERATE_BURST must be > 0")
	}
	if _, err := time.LoadLocation(c.ProgressionTimezone); err != nil {
		return fmt.Errorf("invalid PROGRESSION_TIMEZONE %q: %w", c.ProgressionTimezone, err)
	}
	if c.Environment != "development" && len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters outside development", minJWTSecretLength)
	}
	return nil
}

// Location returns the location calendar days are evaluated in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ProgressionTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// RedisLock returns the Redis lock configuration.
func (c *Config) RedisLock() lock.RedisConfig {
	return lock.RedisConfig{TTL: c.LockTTL}
}

// NeedsRedis reports whether any component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.LockBackend == LockRedis
}
