package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/imaddar/drawsim/internal/domain"
)

type Config struct {
	HTTPAddr        string
	LogLevel        slog.Level
	PublicBaseURL   string
	ShutdownTimeout time.Duration

	DatabaseURL             string
	DatabaseMaxOpenConns    int
	DatabaseMaxIdleConns    int
	DatabaseConnMaxLifetime time.Duration

	Simulation domain.SimulationConfig
	// Seed selects a reproducible source when HasSeed is set.
	Seed    uint64
	HasSeed bool
}

func Load() (Config, error) {
	c := Config{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(envOr("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if c.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if c.DatabaseMaxOpenConns, err = envInt("DATABASE_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if c.DatabaseMaxIdleConns, err = envInt("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Config{}, err
	}
	if c.DatabaseConnMaxLifetime, err = envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return Config{}, err
	}

	sim := domain.DefaultSimulationConfig()
	if sim.DrawCount, err = envInt("SIM_DRAW_COUNT", sim.DrawCount); err != nil {
		return Config{}, err
	}
	if sim.BatchSize, err = envInt("SIM_BATCH_SIZE", sim.BatchSize); err != nil {
		return Config{}, err
	}
	if sim.TopK, err = envInt("SIM_TOP_K", sim.TopK); err != nil {
		return Config{}, err
	}
	if sim.MaxBatchSize, err = envInt("SIM_MAX_BATCH_SIZE", sim.MaxBatchSize); err != nil {
		return Config{}, err
	}
	if sim.MaxAttempts, err = envInt("SIM_MAX_ATTEMPTS", sim.MaxAttempts); err != nil {
		return Config{}, err
	}
	if err := sim.Validate(); err != nil {
		return Config{}, err
	}
	c.Simulation = sim

	if v := os.Getenv("SIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SIM_SEED %q: %w", v, err)
		}
		c.Seed = seed
		c.HasSeed = true
	}

	if c.DatabaseMaxOpenConns < 1 {
		return Config{}, fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be at least 1, got %d", c.DatabaseMaxOpenConns)
	}
	if c.DatabaseMaxIdleConns < 0 {
		return Config{}, fmt.Errorf("DATABASE_MAX_IDLE_CONNS must not be negative, got %d", c.DatabaseMaxIdleConns)
	}

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
