// Package config loads service settings from configs/config.yml, an optional
// explicit file and AUTHAPI_* environment variables, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"authentication_api/internal/logger"

	"github.com/spf13/viper"
)

// MinSecretBytes is the HS256 key size; shorter secrets are rejected at startup.
const MinSecretBytes = 32

// Supported values of db.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const envPrefix = "AUTHAPI"

type Config struct {
	Port     string
	LogLevel string
	DB       DBConfig
	Auth     AuthConfig
	Audit    AuditConfig
}

type DBConfig struct {
	Driver string
	Path   string // sqlite file
	DSN    string // postgres connection string
}

type AuthConfig struct {
	Secret string
	Issuer string
}

type AuditConfig struct {
	Retention     time.Duration
	SweepInterval time.Duration
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// SetDefaults registers development defaults. auth.secret has none on purpose.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.issuer", "authentication_api")
	v.SetDefault("audit.retention", "720h")
	v.SetDefault("audit.sweep_interval", "1h")
}

// Load reads configuration into v and returns the validated result. When
// file is empty, configs/config.yml is used if present.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", file, err)
		}
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		LogLevel: strings.ToLower(v.GetString("log.level")),
		DB: DBConfig{
			Driver: strings.ToLower(v.GetString("db.driver")),
			Path:   v.GetString("db.path"),
			DSN:    v.GetString("db.dsn"),
		},
		Auth: AuthConfig{
			Secret: v.GetString("auth.secret"),
			Issuer: v.GetString("auth.issuer"),
		},
		Audit: AuditConfig{
			Retention:     v.GetDuration("audit.retention"),
			SweepInterval: v.GetDuration("audit.sweep_interval"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting the service cannot start without.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("%w: auth.secret is required", ErrInvalid)
	}
	if len([]byte(c.Auth.Secret)) < MinSecretBytes {
		return fmt.Errorf("%w: auth.secret must be at least %d bytes", ErrInvalid, MinSecretBytes)
	}
	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("%w: unknown log.level %q", ErrInvalid, c.LogLevel)
	}
	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("%w: db.path is required for sqlite", ErrInvalid)
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("%w: db.dsn is required for postgres", ErrInvalid)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown db.driver %q", ErrInvalid, c.DB.Driver)
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("%w: audit.retention must be positive", ErrInvalid)
	}
	if c.Audit.SweepInterval <= 0 {
		return fmt.Errorf("%w: audit.sweep_interval must be positive", ErrInvalid)
	}
	return nil
}

// DSN returns the data source for the configured SQL driver.
func (c *Config) DSN() string {
	if c.DB.Driver == DriverPostgres {
		return c.DB.DSN
	}
	return c.DB.Path
}
