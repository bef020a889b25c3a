package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/session"
)

const (
	localSessionID       = "local-session-1"
	defaultRemoteTimeout = 10 * time.Second
)

type runOptions struct {
	Draws       int
	Batches     int
	BatchSize   int
	MaxAttempts int
	Seed        *uint64
	Suits       []string
	ReportPath  string
	// Server switches to a remote drawsimd at this base URL.
	Server  string
	Timeout time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := run(ctx, opts, logger)
	if err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	fmt.Fprint(os.Stdout, renderRunOutput(report))
	if opts.ReportPath != "" {
		if err := writeRunReportJSON(opts.ReportPath, report); err != nil {
			slog.Error("write report failed", "path", opts.ReportPath, "error", err)
			os.Exit(1)
		}
		slog.Info("report written", "path", opts.ReportPath)
	}
}

func parseFlags(args []string) (runOptions, error) {
	fs := flag.NewFlagSet("drawsim", flag.ContinueOnError)

	draws := fs.Int("draws", 1, "single draws to record before the batches")
	batches := fs.Int("batches", 1, "batch simulations to run")
	batchSize := fs.Int("batch-size", domain.DefaultBatchSize, "draws per batch")
	maxAttempts := fs.Int("max-attempts", domain.DefaultMaxAttempts, "tie re-rolls allowed per batch")
	seed := fs.String("seed", "", "uint64 seed for a reproducible run; empty uses crypto/rand")
	suits := fs.String("suits", "", "comma-separated suit order, e.g. ♥,♠,♦,♣")
	reportPath := fs.String("report", "", "write the run report as JSON to this path")
	server := fs.String("server", "", "drawsimd base URL; empty runs in-process")
	timeout := fs.Duration("timeout", defaultRemoteTimeout, "per-request timeout against -server")

	if err := fs.Parse(args); err != nil {
		return runOptions{}, err
	}
	if fs.NArg() > 0 {
		return runOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts := runOptions{
		Draws:       *draws,
		Batches:     *batches,
		BatchSize:   *batchSize,
		MaxAttempts: *maxAttempts,
		Suits:       parseSuits(*suits),
		ReportPath:  strings.TrimSpace(*reportPath),
		Server:      strings.TrimSpace(*server),
		Timeout:     *timeout,
	}
	if *seed != "" {
		parsed, err := strconv.ParseUint(*seed, 10, 64)
		if err != nil {
			return runOptions{}, fmt.Errorf("invalid -seed %q: %w", *seed, err)
		}
		opts.Seed = &parsed
	}
	if opts.Draws < 0 || opts.Batches < 0 {
		return runOptions{}, errors.New("-draws and -batches must not be negative")
	}
	if opts.Server != "" && opts.Seed != nil {
		return runOptions{}, errors.New("-seed is configured on the server; it cannot be combined with -server")
	}
	return opts, nil
}

func parseSuits(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func run(ctx context.Context, opts runOptions, logger *slog.Logger) (runReport, error) {
	sim, err := newSimulator(ctx, opts, logger)
	if err != nil {
		return runReport{}, err
	}

	logger.Info("starting simulation",
		"session_id", sim.SessionID(),
		"remote", opts.Server != "",
		"draws", opts.Draws,
		"batches", opts.Batches,
		"batch_size", opts.BatchSize,
	)

	draws := make([]session.DrawResult, 0, opts.Draws)
	for i := 0; i < opts.Draws; i++ {
		result, err := sim.Draw(ctx)
		if err != nil {
			return runReport{}, fmt.Errorf("draw %d: %w", i+1, err)
		}
		draws = append(draws, result)
	}
	for i := 0; i < opts.Batches; i++ {
		if _, err := sim.Simulate(ctx, opts.BatchSize); err != nil {
			return runReport{}, fmt.Errorf("batch %d: %w", i+1, err)
		}
	}

	final, err := sim.Snapshot(ctx)
	if err != nil {
		return runReport{}, fmt.Errorf("snapshot: %w", err)
	}
	history, err := sim.History(ctx)
	if err != nil {
		return runReport{}, fmt.Errorf("history: %w", err)
	}
	logger.Info("simulation complete",
		"total_draws", final.Stats.Draws,
		"history_len", final.HistoryLen,
		"top_numbers", final.TopNumbers,
	)

	return buildRunReport(buildRunReportInput{
		Seed:             opts.Seed,
		DrawsRequested:   opts.Draws,
		BatchesRequested: opts.Batches,
		BatchSize:        opts.BatchSize,
		Draws:            draws,
		History:          history,
		Final:            final,
	}), nil
}
