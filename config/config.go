// Package config loads the scheduler's settings from the environment using
// caarlos0/env tags plus a go-playground/validator pass.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config is the full set of operator-tunable settings.
type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:""`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090" validate:"required"`

	ThreadPoolSize  int    `env:"THREAD_POOL_SIZE" envDefault:"4" validate:"min=1,max=256"`
	JobMaxInstances int    `env:"JOB_MAX_INSTANCES" envDefault:"3" validate:"min=1,max=100"`
	JobCoalesce     bool   `env:"JOB_COALESCE" envDefault:"true"`
	MisfireGraceSec int    `env:"JOB_MISFIRE_GRACE_SEC" envDefault:"3600" validate:"min=1"`
	Timezone        string `env:"TIMEZONE" envDefault:"UTC" validate:"required"`

	DatabaseClass  string `env:"DATABASE_CLASS" envDefault:"postgres" validate:"required,oneof=postgres"`
	DatabaseConfig string `env:"DATABASE_CONFIG,required" validate:"required"`
	// DatabaseTableNames is a JSON object overriding one or more of the six
	// table names, e.g. {"jobs":"my_jobs"}. Omitted keys keep their default.
	DatabaseTableNames string `env:"DATABASE_TABLENAMES" envDefault:"{}"`

	// AuthCredentials bootstraps operator accounts at first startup, as
	// {"username": "bcrypt_hash"}. Bootstrap users are always admins.
	AuthCredentials string `env:"AUTH_CREDENTIALS" envDefault:"{}"`

	JWTSecret         string `env:"JWT_SECRET,required" validate:"required,min=16"`
	JWTExpirationDays int    `env:"JWT_EXPIRATION_DAYS" envDefault:"1" validate:"min=1,max=365"`

	// JobClassPackages/JobClassExcludePackages are parsed but not read
	// anywhere: the registry holds every job class whose package is linked
	// into the binary (populated by Go init() calls, see internal/registry),
	// and startup logging lists all of them unfiltered.
	JobClassPackages        string `env:"JOB_CLASS_PACKAGES" envDefault:""`
	JobClassExcludePackages string `env:"JOB_CLASS_EXCLUDE_PACKAGES" envDefault:""`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM" validate:"required_if=Env production,required_if=Env staging"`
	// AlertEmailTo receives a notification whenever a firing resolves to
	// FAILED or SCHEDULED_ERROR. Empty disables notification entirely.
	AlertEmailTo string `env:"ALERT_EMAIL_TO" envDefault:""`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Location resolves the configured TIMEZONE to a *time.Location.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TableNameOverrides decodes DATABASE_TABLENAMES into a key->name map. Keys
// are the lowercase logical names: jobs, executions, audit_logs, users,
// categories, job_categories.
func (c *Config) TableNameOverrides() (map[string]string, error) {
	overrides := map[string]string{}
	if strings.TrimSpace(c.DatabaseTableNames) == "" {
		return overrides, nil
	}
	if err := json.Unmarshal([]byte(c.DatabaseTableNames), &overrides); err != nil {
		return nil, fmt.Errorf("decode DATABASE_TABLENAMES: %w", err)
	}
	return overrides, nil
}

// BootstrapCredential is one entry of AUTH_CREDENTIALS: a username mapped to
// an already-bcrypt-hashed password.
type BootstrapCredential struct {
	Username   string
	BcryptHash string
}

// BootstrapCredentials decodes AUTH_CREDENTIALS into a deterministic slice.
func (c *Config) BootstrapCredentials() ([]BootstrapCredential, error) {
	raw := map[string]string{}
	if strings.TrimSpace(c.AuthCredentials) == "" || c.AuthCredentials == "{}" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(c.AuthCredentials), &raw); err != nil {
		return nil, fmt.Errorf("decode AUTH_CREDENTIALS: %w", err)
	}
	out := make([]BootstrapCredential, 0, len(raw))
	for username, hash := range raw {
		out = append(out, BootstrapCredential{Username: username, BcryptHash: hash})
	}
	return out, nil
}

// ListenAddr is HTTP_ADDRESS:HTTP_PORT.
func (c *Config) ListenAddr() string {
	return c.HTTPAddress + ":" + c.HTTPPort
}
