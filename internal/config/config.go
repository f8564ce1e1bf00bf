package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig
	AWS         AWSConfig
	Tables      TableConfig
	Queue       QueueConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Orders      OrdersConfig
	Idempotency IdempotencyConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port     string
	Env      string
	RunLocal bool
}

type AWSConfig struct {
	Region           string
	EndpointOverride string
	MaxAttempts      int
}

// TableConfig names every DynamoDB table and index the service touches.
type TableConfig struct {
	Orders          string
	OrdersUserIndex string
	Products        string
	Categories      string
	Users           string
	UsersNameIndex  string
	Banners         string
	Testimonials    string
	Counters        string
	Idempotency     string
}

type QueueConfig struct {
	OrdersURL string
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix    string // prometheus namespace
	Namespace string // cloudwatch namespace
}

type OrdersConfig struct {
	StrictTransitions bool
}

type IdempotencyConfig struct {
	TTL time.Duration
}

const devSecret = "storefront-dev-secret"

var ErrMissingSecret = errors.New("JWT_SECRET must be set outside development")

// Load loads the application configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnv("SERVER_PORT", "8080"),
			Env:      getEnv("APP_ENV", "development"),
			RunLocal: getEnvAsBool("RUN_LOCAL", false),
		},
		AWS: AWSConfig{
			Region:           getEnv("AWS_REGION", "us-east-1"),
			EndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
			MaxAttempts:      getEnvAsInt("AWS_MAX_ATTEMPTS", 5),
		},
		Tables: TableConfig{
			Orders:          getEnv("ORDERS_TABLE", "orders"),
			OrdersUserIndex: getEnv("ORDERS_USER_INDEX", "user_id-index"),
			Products:        getEnv("PRODUCTS_TABLE", "products"),
			Categories:      getEnv("CATEGORIES_TABLE", "categories"),
			Users:           getEnv("USERS_TABLE", "users"),
			UsersNameIndex:  getEnv("USERS_USERNAME_INDEX", "username-index"),
			Banners:         getEnv("BANNERS_TABLE", "banners"),
			Testimonials:    getEnv("TESTIMONIALS_TABLE", "testimonials"),
			Counters:        getEnv("COUNTERS_TABLE", "counters"),
			Idempotency:     getEnv("IDEMPOTENCY_TABLE", "idempotency"),
		},
		Queue: QueueConfig{
			OrdersURL: getEnv("ORDERS_QUEUE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			TTL:    getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix:    getEnv("METRICS_PREFIX", "storefront"),
			Namespace: getEnv("METRICS_NAMESPACE", "Storefront/Orders"),
		},
		Orders: OrdersConfig{
			StrictTransitions: getEnvAsBool("ORDER_STRICT_TRANSITIONS", false),
		},
		Idempotency: IdempotencyConfig{
			TTL: getEnvAsDuration("IDEMPOTENCY_TTL", 48*time.Hour),
		},
	}

	if cfg.JWT.Secret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingSecret
		}
		cfg.JWT.Secret = devSecret
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
