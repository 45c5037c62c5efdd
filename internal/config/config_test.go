package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BACKOFFICE_DATABASE_URL", "postgres://localhost/backoffice")
	t.Setenv("BACKOFFICE_JWT_SECRET", "secret")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv returned err: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.ListenAddr)
	}
	if cfg.SessionTimeout != 10*time.Minute {
		t.Fatalf("unexpected session timeout: %s", cfg.SessionTimeout)
	}
	if cfg.SweepSchedule != "@every 1m" {
		t.Fatalf("unexpected sweep schedule: %s", cfg.SweepSchedule)
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("expected migrations on start by default")
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("unexpected max conns: %d", cfg.DBMaxConns)
	}
}

func TestLoadFromEnv_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("BACKOFFICE_DATABASE_URL", "")
	t.Setenv("BACKOFFICE_JWT_SECRET", "secret")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error when database url is missing")
	}
}

func TestLoadFromEnv_RequiresJWTSecret(t *testing.T) {
	t.Setenv("BACKOFFICE_DATABASE_URL", "postgres://localhost/backoffice")
	t.Setenv("BACKOFFICE_JWT_SECRET", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error when jwt secret is missing")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BACKOFFICE_SESSION_TIMEOUT", "3m")
	t.Setenv("BACKOFFICE_SWEEP_SCHEDULE", "*/2 * * * *")
	t.Setenv("BACKOFFICE_MIGRATE_ON_START", "false")
	t.Setenv("BACKOFFICE_DB_MAX_CONNS", "-4")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv returned err: %v", err)
	}
	if cfg.SessionTimeout != 3*time.Minute {
		t.Fatalf("unexpected session timeout: %s", cfg.SessionTimeout)
	}
	if cfg.SweepSchedule != "*/2 * * * *" {
		t.Fatalf("unexpected sweep schedule: %s", cfg.SweepSchedule)
	}
	if cfg.MigrateOnStart {
		t.Fatalf("expected migrations disabled")
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("expected fallback for non-positive max conns, got %d", cfg.DBMaxConns)
	}
}

func TestLoadFromEnv_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("BACKOFFICE_SESSION_TIMEOUT", "ten minutes")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error for unparsable timeout")
	}
}
