package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.SnapshotTTLHours == 0 {
		t.Fatalf("expected default snapshot ttl")
	}
	if !cfg.AutoPauseOnHide {
		t.Fatalf("expected auto pause default on")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SNAPSHOT_TTL_HOURS", "48")
	t.Setenv("AUTO_PAUSE_ON_HIDE", "false")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.SnapshotTTLHours != 48 {
		t.Fatalf("expected override snapshot ttl")
	}
	if cfg.AutoPauseOnHide {
		t.Fatalf("expected auto pause off")
	}
}
