package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string
	DatabaseURL     string
	JWTSecret       string
	CronSecret      string
	RedisURL        string
	SessionTimeout  time.Duration
	SweepSchedule   string
	SweepLeaseTTL   time.Duration
	MigrateOnStart  bool
	DBMaxConns      int
	RequestDeadline time.Duration
}

// LoadFromEnv reads BACKOFFICE_* variables. A .env file in the working
// directory is loaded first when present; real environment values win.
func LoadFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:      envOrDefault("BACKOFFICE_LISTEN_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("BACKOFFICE_DATABASE_URL"),
		JWTSecret:       os.Getenv("BACKOFFICE_JWT_SECRET"),
		CronSecret:      os.Getenv("BACKOFFICE_CRON_SECRET"),
		RedisURL:        os.Getenv("BACKOFFICE_REDIS_URL"),
		SweepSchedule:   envOrDefault("BACKOFFICE_SWEEP_SCHEDULE", "@every 1m"),
		MigrateOnStart:  envBool("BACKOFFICE_MIGRATE_ON_START", true),
		DBMaxConns:      ParsePositiveIntEnv("BACKOFFICE_DB_MAX_CONNS", 25),
		RequestDeadline: 30 * time.Second,
	}

	var err error
	if cfg.SessionTimeout, err = durationEnv("BACKOFFICE_SESSION_TIMEOUT", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SweepLeaseTTL, err = durationEnv("BACKOFFICE_SWEEP_LEASE_TTL", 50*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RequestDeadline, err = durationEnv("BACKOFFICE_REQUEST_TIMEOUT", cfg.RequestDeadline); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("BACKOFFICE_DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("BACKOFFICE_JWT_SECRET is required")
	}
	if cfg.SessionTimeout <= 0 {
		return Config{}, fmt.Errorf("BACKOFFICE_SESSION_TIMEOUT must be positive")
	}
	return cfg, nil
}

func envOrDefault(k, v string) string {
	if raw := os.Getenv(k); raw != "" {
		return raw
	}
	return v
}

func envBool(k string, d bool) bool {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return d
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return d
	}
	return b
}

func durationEnv(k string, d time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(k))
	if raw == "" {
		return d, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return v, nil
}

func ParsePositiveIntEnv(k string, d int) int {
	raw := os.Getenv(k)
	if raw == "" {
		return d
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return d
	}
	return n
}
