package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/imaddar/drawsim/internal/apiclient"
	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/rules"
	"github.com/imaddar/drawsim/internal/session"
)

// simulator is one session driven either in-process or against drawsimd.
type simulator interface {
	SessionID() string
	Draw(ctx context.Context) (session.DrawResult, error)
	Simulate(ctx context.Context, batchSize int) (session.SimulateResult, error)
	Snapshot(ctx context.Context) (session.View, error)
	History(ctx context.Context) ([]domain.HistoryEntry, error)
}

func newSimulator(ctx context.Context, opts runOptions, logger *slog.Logger) (simulator, error) {
	if opts.Server != "" {
		return newRemoteSimulator(ctx, opts, logger)
	}
	return newLocalSimulator(ctx, opts, logger)
}

type localSimulator struct {
	sess *session.Session
}

func newLocalSimulator(ctx context.Context, opts runOptions, logger *slog.Logger) (*localSimulator, error) {
	cfg := domain.DefaultSimulationConfig()
	cfg.BatchSize = opts.BatchSize
	cfg.MaxAttempts = opts.MaxAttempts
	cfg.MaxBatchSize = max(cfg.MaxBatchSize, opts.BatchSize)

	newDealer := func() rules.Dealer { return rules.NewDealer(nil) }
	if opts.Seed != nil {
		seed := *opts.Seed
		newDealer = func() rules.Dealer { return rules.NewDealer(rules.NewSeededSource(seed)) }
	}

	manager, err := session.NewManager(session.ManagerConfig{
		Simulation: cfg,
		NewDealer:  newDealer,
		Logger:     logger,
		NewID:      func() string { return localSessionID },
	})
	if err != nil {
		return nil, err
	}
	sess, err := manager.Create(ctx, opts.Suits)
	if err != nil {
		return nil, err
	}
	return &localSimulator{sess: sess}, nil
}

func (s *localSimulator) SessionID() string { return s.sess.ID() }

func (s *localSimulator) Draw(ctx context.Context) (session.DrawResult, error) {
	return s.sess.Draw(ctx)
}

func (s *localSimulator) Simulate(ctx context.Context, batchSize int) (session.SimulateResult, error) {
	return s.sess.Simulate(ctx, session.SimulateOptions{BatchSize: batchSize})
}

func (s *localSimulator) Snapshot(context.Context) (session.View, error) {
	return s.sess.Snapshot(), nil
}

func (s *localSimulator) History(context.Context) ([]domain.HistoryEntry, error) {
	return s.sess.History(), nil
}

type remoteSimulator struct {
	client apiclient.Client
	id     string
}

func newRemoteSimulator(ctx context.Context, opts runOptions, logger *slog.Logger) (*remoteSimulator, error) {
	client := apiclient.New(opts.Server, opts.Timeout)
	created, err := client.CreateSession(ctx, opts.Suits)
	if err != nil {
		return nil, fmt.Errorf("create remote session: %w", err)
	}
	logger.Info("remote session created", "server", opts.Server, "session_id", created.ID, "self", created.Links.Self)
	return &remoteSimulator{client: client, id: created.ID}, nil
}

func (s *remoteSimulator) SessionID() string { return s.id }

func (s *remoteSimulator) Draw(ctx context.Context) (session.DrawResult, error) {
	return s.client.Draw(ctx, s.id)
}

func (s *remoteSimulator) Simulate(ctx context.Context, batchSize int) (session.SimulateResult, error) {
	return s.client.Simulate(ctx, s.id, batchSize)
}

func (s *remoteSimulator) Snapshot(ctx context.Context) (session.View, error) {
	resp, err := s.client.GetSession(ctx, s.id)
	if err != nil {
		return session.View{}, err
	}
	return resp.View, nil
}

func (s *remoteSimulator) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.client.History(ctx, s.id)
}
