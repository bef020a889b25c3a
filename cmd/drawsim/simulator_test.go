package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/imaddar/drawsim/internal/api"
	"github.com/imaddar/drawsim/internal/apiclient"
	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/persistence"
	"github.com/imaddar/drawsim/internal/rules"
	"github.com/imaddar/drawsim/internal/session"
)

func newRemoteServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	manager, err := session.NewManager(session.ManagerConfig{
		Simulation: domain.DefaultSimulationConfig(),
		NewDealer:  func() rules.Dealer { return rules.NewDealer(rules.NewSeededSource(3)) },
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	server := httptest.NewServer(api.NewServer(api.ServerConfig{
		Sessions:      manager,
		PublicBaseURL: "http://draws.test",
		Logger:        quietLogger(),
	}))
	t.Cleanup(server.Close)
	return server, manager
}

func TestRunAgainstRemoteServer(t *testing.T) {
	t.Parallel()

	server, manager := newRemoteServer(t)
	opts := runOptions{
		Draws:     2,
		Batches:   2,
		BatchSize: 30,
		Suits:     []string{"♥", "♠", "♦", "♣"},
		Server:    server.URL,
		Timeout:   time.Second,
	}

	report, err := run(context.Background(), opts, quietLogger())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.SessionID == "" || report.SessionID == localSessionID {
		t.Fatalf("expected server-assigned session id, got %q", report.SessionID)
	}
	if report.TotalDraws != 62 || len(report.Draws) != 2 || len(report.Batches) != 2 {
		t.Fatalf("unexpected report totals %+v", report)
	}

	sess, err := manager.Get(context.Background(), report.SessionID)
	if err != nil {
		t.Fatalf("expected session on server: %v", err)
	}
	if got := sess.Snapshot().Stats.Draws; got != report.TotalDraws {
		t.Fatalf("server holds %d draws, report says %d", got, report.TotalDraws)
	}
}

func TestRunRemoteSurfacesServerErrors(t *testing.T) {
	t.Parallel()

	server, _ := newRemoteServer(t)
	opts := runOptions{BatchSize: 30, Suits: []string{"♠", "♠"}, Server: server.URL, Timeout: time.Second}
	if _, err := run(context.Background(), opts, quietLogger()); err == nil {
		t.Fatal("expected duplicate suits to be rejected by the server")
	}

	sim := &remoteSimulator{client: apiclient.New(server.URL, time.Second), id: "missing"}
	if _, err := sim.Draw(context.Background()); !errors.Is(err, persistence.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestParseFlagsRejectsSeedWithServer(t *testing.T) {
	t.Parallel()

	if _, err := parseFlags([]string{"-server", "http://localhost:8080", "-seed", "1"}); err == nil {
		t.Fatal("expected -seed with -server to be rejected")
	}
	opts, err := parseFlags([]string{"-server", " http://localhost:8080 ", "-timeout", "3s"})
	if err != nil {
		t.Fatalf("parseFlags failed: %v", err)
	}
	if opts.Server != "http://localhost:8080" || opts.Timeout != 3*time.Second {
		t.Fatalf("unexpected remote options %+v", opts)
	}
}
