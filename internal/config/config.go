package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const developmentJWTSecret = "pacebook-development-secret"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Idempotency IdempotencyConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Secure          bool   // Send HSTS
	Environment     string // "development", "production", "test"
	Debug           bool
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

type IdempotencyConfig struct {
	// TTL is how long a finished response is replayed.
	TTL time.Duration
	// PendingTTL bounds how long an in-flight marker can block its key. Keep it
	// above the server write timeout.
	PendingTTL time.Duration
	Prefix     string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoadDotEnv reads KEY=value pairs from the given files into the environment.
// Variables already set win, and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			Secure:          getEnvBool("SERVER_SECURE", false),
			Environment:     getEnv("APP_ENV", "development"),
			Debug:           getEnvBool("SERVER_DEBUG", false),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "pacebook"),
			Password: getEnv("DB_PASSWORD", "pacebook"),
			DBName:   getEnv("DB_NAME", "pacebook"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),

			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTIssuer: getEnv("JWT_ISSUER", "pacebook"),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Idempotency: IdempotencyConfig{
			TTL:        getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			PendingTTL: getEnvDuration("IDEMPOTENCY_PENDING_TTL", 30*time.Second),
			Prefix:     getEnv("IDEMPOTENCY_PREFIX", "idempotency:"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values. In development a missing JWT secret is
// replaced with a fixed one.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < 1 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS %d/%d", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Auth.JWTSecret == "" {
		if c.Server.Environment != "development" && c.Server.Environment != "test" {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.Auth.JWTSecret = developmentJWTSecret
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid JWT_TTL %s", c.Auth.TokenTTL)
	}
	if c.Idempotency.TTL <= 0 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL %s", c.Idempotency.TTL)
	}
	if c.Idempotency.PendingTTL <= 0 || c.Idempotency.PendingTTL > c.Idempotency.TTL {
		return fmt.Errorf("invalid IDEMPOTENCY_PENDING_TTL %s", c.Idempotency.PendingTTL)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
