// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the village API server.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `env:"VILLAGE_LISTEN_ADDR" envDefault:":8080"`
	// DatabaseDSN is the SQLite data source name.
	DatabaseDSN string `env:"VILLAGE_DATABASE_DSN" envDefault:"village.db"`
	// PublicBaseURL is the externally reachable base URL embedded in
	// invite QR codes.
	PublicBaseURL string `env:"VILLAGE_PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	// SessionTTL bounds how long an issued session token stays valid.
	SessionTTL time.Duration `env:"VILLAGE_SESSION_TTL" envDefault:"24h"`
	// LogLevel selects the slog level: debug, info, warn, or error.
	LogLevel string `env:"VILLAGE_LOG_LEVEL" envDefault:"info"`
	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `env:"VILLAGE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
