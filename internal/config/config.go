// Package config loads runtime configuration from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
)

// Config holds every setting the API server and its tools read.
type Config struct {
	Port         int      `env:"PORT" envDefault:"8080"`
	GinMode      string   `env:"GIN_MODE" envDefault:"debug"`
	AllowOrigins []string `env:"ALLOW_ORIGIN" envSeparator:"," envDefault:"http://localhost:5173"`

	DBHost             string `env:"DB_HOST"`
	DBPort             string `env:"DB_PORT" envDefault:"5432"`
	DBUser             string `env:"DB_USERNAME"`
	DBPassword         string `env:"DB_PASSWORD"`
	DBName             string `env:"DB_DATABASE"`
	UseConnectionStr   bool   `env:"USE_CONNECTION_STR" envDefault:"false"`
	DBConnectionString string `env:"DB_CONNECTION_STR"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	RedisURL string `env:"REDIS_URL"`

	RateLimitPerSecond uint  `env:"RATE_LIMIT_REQUESTS_PER_SECOND" envDefault:"5"`
	MaxBodyBytes       int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	ReconcileSchedule string `env:"RECONCILE_SCHEDULE" envDefault:"@every 1h"`
	OpenApplicantList bool   `env:"OPEN_APPLICANT_LIST" envDefault:"false"`
	MessagePageSize   int    `env:"MESSAGE_PAGE_SIZE" envDefault:"100"`

	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"LOG_FORMAT" envDefault:"text"`
	AuthLog    bool   `env:"LOGGING" envDefault:"false"`
	AuthLogDir string `env:"AUTH_LOG_DIR" envDefault:"log"`

	OtelEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"studentshift-api"`
}

// Parse reads the environment into a Config without validating it.
// Tools that only need the database settings use it directly.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MessagePageSize <= 0 {
		return errors.New("MESSAGE_PAGE_SIZE must be positive")
	}
	if c.RateLimitPerSecond == 0 {
		c.RateLimitPerSecond = 5
	}
	return nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() (string, error) {
	if c.UseConnectionStr {
		if c.DBConnectionString == "" {
			return "", errors.New("DB_CONNECTION_STR is empty")
		}
		return c.DBConnectionString, nil
	}
	if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
		return "", errors.New("database configuration is incomplete")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName), nil
}
