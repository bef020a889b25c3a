package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/imaddar/drawsim/internal/domain"
)

var allKeys = []string{
	"HTTP_ADDR", "LOG_LEVEL", "PUBLIC_BASE_URL", "SHUTDOWN_TIMEOUT",
	"DATABASE_URL", "DATABASE_MAX_OPEN_CONNS", "DATABASE_MAX_IDLE_CONNS", "DATABASE_CONN_MAX_LIFETIME",
	"SIM_DRAW_COUNT", "SIM_BATCH_SIZE", "SIM_TOP_K", "SIM_MAX_ATTEMPTS", "SIM_MAX_BATCH_SIZE", "SIM_SEED",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.HTTPAddr != ":8080" || c.LogLevel != slog.LevelInfo || c.PublicBaseURL != "http://localhost:8080" {
		t.Fatalf("unexpected server defaults %+v", c)
	}
	if c.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %v", c.ShutdownTimeout)
	}
	if c.DatabaseURL != "" || c.DatabaseMaxOpenConns != 10 || c.DatabaseMaxIdleConns != 5 || c.DatabaseConnMaxLifetime != 5*time.Minute {
		t.Fatalf("unexpected database defaults %+v", c)
	}
	if c.Simulation != domain.DefaultSimulationConfig() {
		t.Fatalf("unexpected simulation defaults %+v", c.Simulation)
	}
	if c.HasSeed {
		t.Fatal("expected no seed by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("PUBLIC_BASE_URL", "https://draws.example.com/")
	t.Setenv("DATABASE_URL", "postgres://localhost/drawsim?sslmode=disable")
	t.Setenv("DATABASE_CONN_MAX_LIFETIME", "90s")
	t.Setenv("SIM_BATCH_SIZE", "250")
	t.Setenv("SIM_MAX_ATTEMPTS", "50")
	t.Setenv("SIM_MAX_BATCH_SIZE", "500")
	t.Setenv("SIM_SEED", "42")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.HTTPAddr != ":9090" || c.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected overrides %+v", c)
	}
	if c.PublicBaseURL != "https://draws.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.PublicBaseURL)
	}
	if c.DatabaseConnMaxLifetime != 90*time.Second {
		t.Fatalf("unexpected lifetime %v", c.DatabaseConnMaxLifetime)
	}
	if c.Simulation.BatchSize != 250 || c.Simulation.MaxAttempts != 50 || c.Simulation.MaxBatchSize != 500 || c.Simulation.DrawCount != domain.DefaultDrawCount {
		t.Fatalf("unexpected simulation %+v", c.Simulation)
	}
	if !c.HasSeed || c.Seed != 42 {
		t.Fatalf("expected seed 42, got %d (has=%v)", c.Seed, c.HasSeed)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"LOG_LEVEL", "verbose"},
		{"SHUTDOWN_TIMEOUT", "soon"},
		{"DATABASE_MAX_OPEN_CONNS", "0"},
		{"DATABASE_MAX_IDLE_CONNS", "x"},
		{"SIM_DRAW_COUNT", "six"},
		{"SIM_BATCH_SIZE", "0"},
		{"SIM_MAX_BATCH_SIZE", "10"},
		{"SIM_SEED", "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestLoadWrapsInvalidSimulationConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("SIM_TOP_K", "-2")
	if _, err := Load(); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
