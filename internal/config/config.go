// Package config loads withbee settings from defaults, an optional YAML
// file, WITHBEE_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/bawdo/withbee/visitors"
)

// EnvPrefix prefixes every environment variable read by Load. Nested keys
// use a double underscore: WITHBEE_SQLSERVER__LEGACY_OFFSET.
const EnvPrefix = "WITHBEE_"

// DefaultFile is read when no file is given and it exists in the
// working directory.
const DefaultFile = "withbee.yaml"

// Defaults.
const (
	DefaultDriver   = visitors.DriverPostgres
	DefaultLogLevel = "info"
)

// Config holds all settings.
type Config struct {
	Driver           string          `koanf:"driver"`
	DSN              string          `koanf:"dsn"`
	LogLevel         string          `koanf:"log_level"`
	StatementTimeout time.Duration   `koanf:"statement_timeout"`
	Params           bool            `koanf:"params"`
	SQLServer        SQLServerConfig `koanf:"sqlserver"`
}

// SQLServerConfig holds settings only the sqlsrv grammar reads.
type SQLServerConfig struct {
	LegacyOffset bool `koanf:"legacy_offset"`
}

// Load reads the configuration. path may be empty; flags may be nil.
// Only flags the user changed override lower layers.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"driver":                  DefaultDriver,
		"dsn":                     "",
		"log_level":               DefaultLogLevel,
		"statement_timeout":       "0s",
		"params":                  true,
		"sqlserver.legacy_offset": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if key == "legacy_offset" {
				key = "sqlserver.legacy_offset"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the driver, log level and timeout.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(visitors.Drivers(), c.Driver) {
		errs = append(errs, &visitors.UnknownDriverError{Driver: c.Driver, Available: visitors.Drivers()})
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.StatementTimeout < 0 {
		errs = append(errs, fmt.Errorf("statement_timeout must not be negative, got %s", c.StatementTimeout))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// GrammarOptions returns the grammar options the settings imply.
func (c *Config) GrammarOptions() []visitors.Option {
	var opts []visitors.Option
	if !c.Params {
		opts = append(opts, visitors.WithoutParams())
	}
	if c.SQLServer.LegacyOffset {
		opts = append(opts, visitors.WithLegacyOffset())
	}
	return opts
}
