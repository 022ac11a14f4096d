package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/St1cky1/todo-service/internal/infrastructure/auth"
	"github.com/St1cky1/todo-service/internal/infrastructure/cache"
	"github.com/St1cky1/todo-service/internal/infrastructure/client"
)

type Config struct {
	Server   ServerConfig
	Database client.Config
	RabbitMQ RabbitMQConfig
	Redis    cache.Config
	JWT      auth.JWTConfig
	Admin    AdminConfig
}

const (
	envDevelopment = "development"

	// годится только для локального запуска
	defaultJWTSecret = "dev-secret-change-in-production"
)

type ServerConfig struct {
	HTTPPort        string
	GRPCPort        string
	Environment     string
	ShutdownTimeout time.Duration
}

func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == envDevelopment
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Queue    string
}

// URL собирает amqp:// адрес с экранированными учетными данными
func (c RabbitMQConfig) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/",
	}
	return u.String()
}

// AdminConfig describes the account created at startup when it is missing.
// An empty password disables the bootstrap.
type AdminConfig struct {
	Username string
	Password string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:        getEnv("HTTP_PORT", "8080"),
			GRPCPort:        getEnv("GRPC_PORT", "9090"),
			Environment:     getEnv("ENVIRONMENT", envDevelopment),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: client.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "todo"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvAsInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			Queue:    getEnv("RABBITMQ_AUDIT_QUEUE", client.DefaultAuditQueue),
		},
		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "todo:"),
			TTL:      getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		},
		JWT: auth.JWTConfig{
			SecretKey:           getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenDuration: getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", time.Hour),
			Issuer:              getEnv("JWT_ISSUER", "todo-service"),
		},
		Admin: AdminConfig{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RedisEnabled is false when REDIS_ADDR is not set.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	if c.Server.GRPCPort == "" {
		errs = append(errs, errors.New("GRPC_PORT is required"))
	}
	if c.Database.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.JWT.SecretKey == defaultJWTSecret && !c.Server.IsDevelopment() {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be set explicitly in %q environment", c.Server.Environment))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_TOKEN_DURATION must be positive, got %s", c.JWT.AccessTokenDuration))
	}
	if c.RabbitMQ.Queue == "" {
		errs = append(errs, errors.New("RABBITMQ_AUDIT_QUEUE is required"))
	}
	if c.RedisEnabled() && c.Redis.TTL <= 0 {
		errs = append(errs, fmt.Errorf("REDIS_TTL must be positive, got %s", c.Redis.TTL))
	}
	if c.Admin.Password != "" && c.Admin.Username == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME is required when ADMIN_PASSWORD is set"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
