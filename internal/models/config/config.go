package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the application configuration read from the environment.
type Config struct {
	Environment    string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	JWTSecret      string        `env:"JWT_SECRET"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	OTelEndpoint   string        `env:"OTEL_ENDPOINT"`
	Bot            BotConfig
	Database       DatabaseConfig
}

type BotConfig struct {
	Token    string  `env:"BOT_TOKEN"`
	Debug    bool    `env:"BOT_DEBUG"`
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","` // Telegram ids granted the admin role
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = sslModeFor(cfg.Environment)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errors []string

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	}
	if c.Database.Username == "" {
		errors = append(errors, "DB_USER is required")
	}
	if c.Database.Password == "" && c.IsProduction() {
		errors = append(errors, "DB_PASSWORD is required in production")
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errors, ", "))
	}
	return nil
}
