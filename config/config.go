// Package config loads process configuration from OOMPA_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every variable read by Load.
const EnvPrefix = "OOMPA_"

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `envPrefix:"APP_"`
	Analytics     AnalyticsConfig     `envPrefix:"ANALYTICS_"`
	Redis         RedisConfig         `envPrefix:"REDIS_"`
	Database      DatabaseConfig      `envPrefix:"DATABASE_"`
	Observability ObservabilityConfig `envPrefix:"LOG_"`
	Features      FeatureFlags        `envPrefix:"FEATURE_"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string      `env:"NAME" envDefault:"oompa-social"`
	Environment Environment `env:"ENV" envDefault:"development"`
	Debug       bool        `env:"DEBUG"`

	// ShutdownTimeout bounds the flush of analytics sinks on exit.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// AnalyticsConfig controls the in-process event bus.
type AnalyticsConfig struct {
	Enabled        bool          `env:"ENABLED" envDefault:"true"`
	AsyncMode      bool          `env:"ASYNC" envDefault:"true"`
	WorkerPoolSize int           `env:"WORKERS" envDefault:"4"`
	BufferSize     int           `env:"BUFFER_SIZE" envDefault:"64"`
	FlushInterval  time.Duration `env:"FLUSH_INTERVAL" envDefault:"1s"`

	// LogEvents mirrors every analytics event to the logger at debug level.
	LogEvents bool `env:"LOG_EVENTS"`
}

// RedisConfig configures the Pub/Sub fan-out.
type RedisConfig struct {
	Enabled     bool          `env:"ENABLED"`
	URL         string        `env:"URL" envDefault:"redis://localhost:6379/0"`
	Channel     string        `env:"CHANNEL" envDefault:"oompa:analytics"`
	CountersKey string        `env:"COUNTERS_KEY" envDefault:"oompa:analytics:counts"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}

// DatabaseConfig configures the analytics event log.
type DatabaseConfig struct {
	Enabled        bool          `env:"ENABLED"`
	URL            string        `env:"URL"`
	MaxConns       int32         `env:"MAX_CONNS" envDefault:"4"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	Migrate        bool          `env:"MIGRATE" envDefault:"true"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(environMap(os.Environ()))
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration Load would produce with an empty
// environment.
func Default() *Config {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		panic(fmt.Sprintf("config: defaults are invalid: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	switch c.App.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Sprintf("%sAPP_ENV %q is not one of development, staging, production", EnvPrefix, c.App.Environment))
	}

	if c.Analytics.WorkerPoolSize < 1 {
		errs = append(errs, EnvPrefix+"ANALYTICS_WORKERS must be at least 1")
	}
	if c.Analytics.BufferSize < 1 {
		errs = append(errs, EnvPrefix+"ANALYTICS_BUFFER_SIZE must be at least 1")
	}
	if c.Analytics.FlushInterval <= 0 {
		errs = append(errs, EnvPrefix+"ANALYTICS_FLUSH_INTERVAL must be positive")
	}

	if c.Redis.Enabled {
		if c.Redis.URL == "" {
			errs = append(errs, EnvPrefix+"REDIS_URL is required when redis is enabled")
		}
		if c.Redis.Channel == "" {
			errs = append(errs, EnvPrefix+"REDIS_CHANNEL is required when redis is enabled")
		}
	}
	if c.Database.Enabled && c.Database.URL == "" {
		errs = append(errs, EnvPrefix+"DATABASE_URL is required when the event log is enabled")
	}

	switch strings.ToLower(c.Observability.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("%sLOG_FORMAT %q must be text or json", EnvPrefix, c.Observability.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// LogLevel returns the effective level name. Debug mode forces debug.
func (c *Config) LogLevel() string {
	if c.App.Debug {
		return "debug"
	}
	return c.Observability.Level
}

func environMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
