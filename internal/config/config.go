// Package config loads the command line configuration from the environment,
// optionally seeded from a .env file. Flags override what is loaded here.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"jstable/internal/core"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "JSTABLE_"

// DefaultEnvFile is read by Load when no file is named. It may be missing.
const DefaultEnvFile = ".env"

const (
	DriverMSSQL    = "mssql"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
	DSN    string `env:"DSN"`
	// DBSchema is the database schema holding the tables. Empty means the
	// dialect default.
	DBSchema     string `env:"DB_SCHEMA"`
	BigInt       bool   `env:"BIGINT"`
	DoubleFloats bool   `env:"DOUBLE_FLOATS"`
	Datetime     bool   `env:"DATETIME"`

	Format      string        `env:"FORMAT" envDefault:"sql"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"1m"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"4"`
	Verbose     bool          `env:"VERBOSE"`
}

// Load reads the configuration. Variables already set in the environment win
// over the ones found in envFiles.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w: %w", err, core.ErrConfiguration)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	return cfg, nil
}

// Validate checks the settings every database command needs.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMSSQL, DriverPostgres:
	default:
		return fmt.Errorf("unknown driver %q; use %q or %q: %w", c.Driver, DriverMSSQL, DriverPostgres, core.ErrConfiguration)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn is required (set %sDSN or --dsn): %w", EnvPrefix, core.ErrConfiguration)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d: %w", c.Concurrency, core.ErrConfiguration)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %w", core.ErrConfiguration)
	}
	return nil
}
