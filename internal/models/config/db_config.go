package config

import (
	"net"
	"net/url"
	"strconv"
)

// DatabaseConfig holds the postgres connection settings.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	Username string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"gym-db"`
	SSLMode  string `env:"DB_SSLMODE"`
}

// DSN renders a postgres:// URL for lib/pq. Values are escaped, and an
// empty password is left out instead of rendered as an empty key.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	} else {
		u.User = url.User(d.Username)
	}
	return u.String()
}

// sslModeFor always requires SSL in production.
func sslModeFor(env string) string {
	if env == "production" {
		return "require"
	}
	return "disable"
}
