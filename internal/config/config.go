package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Minio     MinioConfig
	Auth      AuthConfig
	Tenancy   TenancyConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Webhook   WebhookConfig
	Log       LogConfig
	Tracing   TracingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// TrustedProxies lists the CIDRs whose X-Forwarded-For header is
	// believed. Empty means the peer address is the client.
	TrustedProxies []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL            string
	MigrateOnStart bool
}

// RedisConfig holds cache configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinioConfig holds object storage configuration
type MinioConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	ImageBucket string
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// TenancyConfig holds domain resolution settings
type TenancyConfig struct {
	CentralDomain  string
	DomainCacheTTL time.Duration
}

// RateLimitConfig holds per-IP request limits
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// JobsConfig holds background job settings
type JobsConfig struct {
	Enabled             bool
	PendingOrderTTL     time.Duration
	OrderExpiryInterval time.Duration
	DomainWarmInterval  time.Duration
}

// WebhookConfig holds outbound order notification settings
type WebhookConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	SamplingRate float64
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getInt("PORT", 8080),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TrustedProxies: getList("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MigrateOnStart: getBool("DATABASE_MIGRATE_ON_START", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:    getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:   getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:   getEnv("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:      getBool("MINIO_USE_SSL", false),
			ImageBucket: getEnv("MINIO_IMAGE_BUCKET", "product-images"),
		},
		Auth: AuthConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			AccessTokenTTL:   getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL:  getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			LoginMaxAttempts: getInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:      getDuration("LOGIN_WINDOW", 15*time.Minute),
		},
		Tenancy: TenancyConfig{
			CentralDomain:  strings.ToLower(getEnv("CENTRAL_DOMAIN", "localhost")),
			DomainCacheTTL: getDuration("TENANT_DOMAIN_CACHE_TTL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloat("RATE_LIMIT_RPS", 20),
			Burst:             getInt("RATE_LIMIT_BURST", 40),
		},
		Jobs: JobsConfig{
			Enabled:             getBool("JOBS_ENABLED", true),
			PendingOrderTTL:     getDuration("PENDING_ORDER_TTL", 48*time.Hour),
			OrderExpiryInterval: getDuration("ORDER_EXPIRY_INTERVAL", 30*time.Minute),
			DomainWarmInterval:  getDuration("DOMAIN_WARM_INTERVAL", 5*time.Minute),
		},
		Webhook: WebhookConfig{
			Timeout:    getDuration("WEBHOOK_TIMEOUT", 10*time.Second),
			MaxRetries: getInt("WEBHOOK_MAX_RETRIES", 3),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getBool("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "digimall"),
			SamplingRate: getFloat("OTEL_SAMPLING_RATE", 1.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Tenancy.CentralDomain == "" {
		return errors.New("CENTRAL_DOMAIN is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
