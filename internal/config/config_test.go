package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 20 || cfg.Database.AcquireTimeout != 2*time.Second {
		t.Fatalf("unexpected pool defaults: %+v", cfg.Database)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected auth ttls: %+v", cfg.Auth)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.Auth.BcryptCost)
	}
	if cfg.Catalog.ListingCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected listing ttl: %v", cfg.Catalog.ListingCacheTTL)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.TrustProxy {
		t.Fatal("forwarding headers should be untrusted by default")
	}
	if cfg.ObjectStore.Enabled() {
		t.Fatal("object store should be disabled without a bucket")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VIDEOHUB_PORT", "9090")
	t.Setenv("VIDEOHUB_ENV", "staging")
	t.Setenv("VIDEOHUB_DB_MAX_CONNS", "5")
	t.Setenv("VIDEOHUB_TOKEN_TTL", "1h")
	t.Setenv("VIDEOHUB_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("VIDEOHUB_STRICT_VIDEO_AUTH", "true")
	t.Setenv("VIDEOHUB_TRUST_PROXY", "true")
	t.Setenv("VIDEOHUB_OBJECT_STORE_BUCKET", "thumbs")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.Environment != "staging" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Database.MaxConns != 5 {
		t.Fatalf("unexpected max conns: %d", cfg.Database.MaxConns)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.Auth.TokenTTL)
	}
	if len(cfg.Server.CORSOrigins) != 2 {
		t.Fatalf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Server.StrictVideoAuth {
		t.Fatal("expected strict video auth")
	}
	if !cfg.Server.TrustProxy {
		t.Fatal("expected trusted proxy")
	}
	if !cfg.ObjectStore.Enabled() {
		t.Fatal("expected object store to be enabled")
	}
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("VIDEOHUB_DB_MAX_CONNS", "lots")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric max conns")
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = " " }},
		{"default secret in production", func(c *Config) { c.Server.Environment = "production" }},
		{"bcrypt cost too high", func(c *Config) { c.Auth.BcryptCost = 40 }},
		{"zero token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }},
		{"zero pool", func(c *Config) { c.Database.MaxConns = 0 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
