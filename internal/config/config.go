// Package config holds process configuration: HTTP address, cache store
// selection, upstream provider endpoints and solver defaults. Values layer
// defaults, an optional YAML file and VISITROUTER_-prefixed environment
// variables.
package config

import (
	"errors"
	"fmt"

	"internship-router/internal/routing"
)

// Sentinel error kinds for this package, so callers can errors.Is
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the cache backend: memory, file, sqlite,
	// postgres or redis.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the database or file path for the file and sqlite
	// drivers.
	StorePath string `koanf:"store_path"`

	// PostgresURL is the connection string for the postgres driver.
	PostgresURL string `koanf:"postgres_url"`

	// RedisAddr is the host:port for the redis driver.
	RedisAddr string `koanf:"redis_addr"`

	// Upstream base URLs; empty selects the public endpoint.
	BANBaseURL       string `koanf:"ban_base_url"`
	NominatimBaseURL string `koanf:"nominatim_base_url"`
	OSRMBaseURL      string `koanf:"osrm_base_url"`

	// UserAgent identifies this service to the geocoding providers.
	// Nominatim rejects requests without one.
	UserAgent string `koanf:"user_agent"`

	// GeocodeAttemptDelayMS is the pause before each fallback attempt
	// within an address cascade.
	GeocodeAttemptDelayMS int `koanf:"geocode_attempt_delay_ms"`

	// Solver carries the default assignment options; API requests may
	// override them per run.
	Solver routing.Options `koanf:"solver"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Addr:                  ":8080",
		StoreDriver:           "memory",
		RedisAddr:             "localhost:6379",
		UserAgent:             "internship-router/1.0",
		GeocodeAttemptDelayMS: 500,
		Solver:                routing.DefaultOptions(),
	}
}

// Validate checks for values the process cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case "memory":
	case "file", "sqlite":
		if c.StorePath == "" {
			return fmt.Errorf("%w: store_path required for the %s driver", ErrInvalidConfig, c.StoreDriver)
		}
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("%w: postgres_url required for the postgres driver", ErrInvalidConfig)
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr required for the redis driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	w := c.Solver.Weights
	if w.Duration < 0 || w.Distance < 0 || w.Balance < 0 || w.Affinity < 0 {
		return fmt.Errorf("%w: solver weights must not be negative", ErrInvalidConfig)
	}
	if c.GeocodeAttemptDelayMS < 0 {
		return fmt.Errorf("%w: geocode_attempt_delay_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
