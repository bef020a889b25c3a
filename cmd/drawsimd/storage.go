package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imaddar/drawsim/internal/config"
	"github.com/imaddar/drawsim/internal/persistence"
)

const databasePingTimeout = 10 * time.Second

// openRepository picks Postgres when DATABASE_URL is set and the in-memory
// repository otherwise. The returned func releases the connection pool.
func openRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory repository")
		return persistence.NewInMemoryRepository(), func() {}, nil
	}
	if !hasSQLDriver("postgres") {
		return nil, nil, errors.New("postgres SQL driver is not linked; add a driver import such as github.com/lib/pq in this binary")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, databasePingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := persistence.MigratePostgres(pingCtx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database migration failed: %w", err)
	}

	logger.Info("using postgres repository",
		"max_open_conns", cfg.DatabaseMaxOpenConns,
		"max_idle_conns", cfg.DatabaseMaxIdleConns,
	)
	return persistence.NewPostgresRepository(db), func() { _ = db.Close() }, nil
}

func hasSQLDriver(name string) bool {
	for _, driver := range sql.Drivers() {
		if driver == name {
			return true
		}
	}
	return false
}
