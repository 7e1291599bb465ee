package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultJWTSecret     = "dev-jwt-secret-change-in-production"
	defaultSessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
)

// Config holds application configuration loaded from environment variables
// and, optionally, a YAML file named by POMODO_CONFIG.
type Config struct {
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`

	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseURL    string `mapstructure:"database_url"`

	JWTSecret       string        `mapstructure:"jwt_secret"`
	SessionSecret   string        `mapstructure:"session_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`

	RedisURL  string `mapstructure:"redis_url"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	CORSOrigins     []string `mapstructure:"cors_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
	RateLimitBurst  int      `mapstructure:"rate_limit_burst"`
	LoginRateLimit  int      `mapstructure:"login_rate_limit"`

	// StrictMutations answers unknown {obj, action} pairs with 400 instead of
	// the lenient 200 {"message":"error"}.
	StrictMutations bool `mapstructure:"strict_mutations"`

	TokenPurgeSchedule string `mapstructure:"token_purge_schedule"`
	WorkerEmbedded     bool   `mapstructure:"worker_embedded"`
	SeedDevData        bool   `mapstructure:"seed_dev_data"`
}

var defaults = map[string]interface{}{
	"env":                  "development",
	"port":                 "8080",
	"database_driver":      "postgres",
	"database_url":         "",
	"jwt_secret":           "",
	"session_secret":       "",
	"access_token_ttl":     time.Hour,
	"refresh_token_ttl":    7 * 24 * time.Hour,
	"redis_url":            "",
	"log_level":            "info",
	"log_format":           "text",
	"cors_origins":         []string{"http://localhost:3000", "http://localhost:5173"},
	"rate_limit_per_min":   600,
	"rate_limit_burst":     50,
	"login_rate_limit":     10,
	"strict_mutations":     false,
	"token_purge_schedule": "@hourly",
	"worker_embedded":      false,
	"seed_dev_data":        false,
}

// Load reads configuration from environment variables. Every key is the
// upper-cased field name (PORT, DATABASE_URL, ...).
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		// AutomaticEnv only resolves keys viper already knows about.
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	if err := v.BindEnv("config_file", "POMODO_CONFIG"); err != nil {
		return nil, fmt.Errorf("failed to bind env for config file: %w", err)
	}
	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Env vars arrive as one comma-separated string.
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	// Warn if using default secrets (insecure for production)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
		slog.Warn("Using default JWT_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = defaultSessionSecret
		slog.Warn("Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres or sqlite)", c.DatabaseDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.IsProduction() && (c.JWTSecret == defaultJWTSecret || c.SessionSecret == defaultSessionSecret) {
		return fmt.Errorf("JWT_SECRET and SESSION_SECRET must be set in production")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
