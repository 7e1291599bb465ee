package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("expected default driver postgres, got %s", cfg.DatabaseDriver)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Errorf("expected access token ttl 1h, got %v", cfg.AccessTokenTTL)
	}
	if cfg.JWTSecret != defaultJWTSecret {
		t.Errorf("expected fallback JWT secret, got %q", cfg.JWTSecret)
	}
	if cfg.StrictMutations {
		t.Error("expected lenient mutations by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:pomodo.db")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("STRICT_MUTATIONS", "true")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.DatabaseURL != "file:pomodo.db" {
		t.Errorf("unexpected database settings: %s %s", cfg.DatabaseDriver, cfg.DatabaseURL)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %v", cfg.AccessTokenTTL)
	}
	if !cfg.StrictMutations {
		t.Error("expected strict mutations")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("expected JWT secret from env, got %q", cfg.JWTSecret)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadRequiresSecretsInProduction(t *testing.T) {
	t.Setenv("ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when production runs with default secrets")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pomodo.yaml")
	content := "port: \"7070\"\nlog_format: json\nrate_limit_burst: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POMODO_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("expected port from file, got %s", cfg.Port)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected json log format, got %s", cfg.LogFormat)
	}
	if cfg.RateLimitBurst != 5 {
		t.Errorf("expected burst 5, got %d", cfg.RateLimitBurst)
	}
}
