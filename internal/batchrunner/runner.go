package batchrunner

import (
	"context"
	"errors"
	"fmt"

	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/rules"
	"github.com/imaddar/drawsim/internal/stats"
)

var (
	ErrRunnerMisconfigured = errors.New("runner misconfigured")
	ErrContextCancelled    = errors.New("runner context cancelled")
)

type RunnerConfig struct {
	// MaxAttempts bounds the tie re-roll loop. Zero means domain.DefaultMaxAttempts.
	MaxAttempts       int
	OnAttemptRejected func(AttemptSummary)
	OnBatchAccepted   func(BatchResult)
}

type Runner struct {
	dealer rules.Dealer
	config RunnerConfig
}

type RunBatchInput struct {
	Deck      domain.Deck
	BatchSize int
	DrawCount int
	TopK      int
}

// AttemptSummary describes one discarded batch.
type AttemptSummary struct {
	Attempt    int
	TopNumbers []int
}

type BatchResult struct {
	Stats     *stats.Tally
	TopCards  []string
	TopNumber int
	Attempts  int
}

func New(dealer rules.Dealer, config RunnerConfig) Runner {
	return Runner{
		dealer: dealer,
		config: config,
	}
}

// RunBatch draws BatchSize hands into a fresh tally and repeats the whole
// batch until exactly one number holds the top count.
func (r Runner) RunBatch(ctx context.Context, input RunBatchInput) (BatchResult, error) {
	if r.dealer == nil {
		return BatchResult{}, ErrRunnerMisconfigured
	}
	if input.BatchSize < 1 {
		return BatchResult{}, fmt.Errorf("%w: batch size must be at least 1, got %d", domain.ErrInvalidConfig, input.BatchSize)
	}
	if input.DrawCount < 1 || input.DrawCount > input.Deck.Len() {
		return BatchResult{}, fmt.Errorf("%w: requested %d from %d cards", domain.ErrInvalidDrawSize, input.DrawCount, input.Deck.Len())
	}

	topK := input.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	maxAttempts := r.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := checkContext(ctx); err != nil {
			return BatchResult{Attempts: attempt - 1}, err
		}

		local, err := r.runAttempt(ctx, input)
		if err != nil {
			return BatchResult{Attempts: attempt}, err
		}

		top := local.TopNumbers()
		if len(top) != 1 {
			if r.config.OnAttemptRejected != nil {
				r.config.OnAttemptRejected(AttemptSummary{Attempt: attempt, TopNumbers: top})
			}
			continue
		}

		result := BatchResult{
			Stats:     local,
			TopCards:  local.TopCards(topK),
			TopNumber: top[0],
			Attempts:  attempt,
		}
		if r.config.OnBatchAccepted != nil {
			r.config.OnBatchAccepted(result)
		}
		return result, nil
	}

	return BatchResult{Attempts: maxAttempts}, fmt.Errorf("%w: %d attempts of %d draws", domain.ErrNonConvergentBatch, maxAttempts, input.BatchSize)
}

func (r Runner) runAttempt(ctx context.Context, input RunBatchInput) (*stats.Tally, error) {
	local := stats.NewTally()
	for i := 0; i < input.BatchSize; i++ {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		draw, err := r.dealer.Deal(input.Deck, input.DrawCount)
		if err != nil {
			return nil, fmt.Errorf("deal %d: %w", i+1, err)
		}
		local.RecordDraw(draw.Cards, draw.Number)
	}
	return local, nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
	default:
		return nil
	}
}
