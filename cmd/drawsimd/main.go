package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/imaddar/drawsim/internal/api"
	"github.com/imaddar/drawsim/internal/config"
	"github.com/imaddar/drawsim/internal/feed"
	"github.com/imaddar/drawsim/internal/rules"
	"github.com/imaddar/drawsim/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open repository", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	broker := feed.NewBroker(logger)
	defer broker.Close()

	manager, err := session.NewManager(session.ManagerConfig{
		Simulation: cfg.Simulation,
		Repository: repo,
		NewDealer:  dealerFactory(cfg, logger),
		Publisher:  broker,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build session manager", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(api.ServerConfig{
		Sessions:      manager,
		Feed:          broker,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	})
	e := server.Echo()

	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr, "public_base_url", cfg.PublicBaseURL)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func dealerFactory(cfg config.Config, logger *slog.Logger) func() rules.Dealer {
	if !cfg.HasSeed {
		return func() rules.Dealer { return rules.NewDealer(nil) }
	}
	logger.Warn("using seeded dealer; every session replays the same sequence", "seed", cfg.Seed)
	seed := cfg.Seed
	return func() rules.Dealer { return rules.NewDealer(rules.NewSeededSource(seed)) }
}
