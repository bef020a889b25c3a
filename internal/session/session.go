// Package session owns the mutable state of one simulator: the suit order,
// the global tally and the history log. Every operation holds the session
// lock for its full duration, so draws, batches, resets and reorders run to
// completion one at a time.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/imaddar/drawsim/internal/batchrunner"
	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/persistence"
	"github.com/imaddar/drawsim/internal/rules"
	"github.com/imaddar/drawsim/internal/stats"
)

type Session struct {
	mu sync.Mutex

	id        string
	suits     domain.SuitOrder
	deck      domain.Deck
	config    domain.SimulationConfig
	dealer    rules.Dealer
	global    *stats.Tally
	history   []domain.HistoryEntry
	createdAt time.Time

	repo      persistence.Repository
	logger    *slog.Logger
	publisher Publisher
	now       func() time.Time
}

// CardView is a drawn card with the derived fields a presentation layer shows.
type CardView struct {
	Key        string `json:"key"`
	Suit       string `json:"suit"`
	Value      int    `json:"value"`
	Label      string `json:"label"`
	Color      string `json:"color"`
	RealNumber int    `json:"real_number"`
}

type DrawResult struct {
	Cards      []CardView `json:"cards"`
	Number     int        `json:"number"`
	TopCards   []string   `json:"top_cards"`
	TopNumbers []int      `json:"top_numbers"`
	Draws      int        `json:"draws"`
}

type SimulateOptions struct {
	// BatchSize overrides the session default when positive.
	BatchSize int
}

type SimulateResult struct {
	Entry      domain.HistoryEntry `json:"entry"`
	TopCards   []string            `json:"top_cards"`
	TopNumbers []int               `json:"top_numbers"`
	Draws      int                 `json:"draws"`
}

type View struct {
	ID         string                  `json:"id"`
	Suits      []string                `json:"suits"`
	Config     domain.SimulationConfig `json:"config"`
	Stats      domain.StatsSnapshot    `json:"stats"`
	TopCards   []string                `json:"top_cards"`
	TopNumbers []int                   `json:"top_numbers"`
	HistoryLen int                     `json:"history_len"`
	CreatedAt  time.Time               `json:"created_at"`
}

func (s *Session) ID() string {
	return s.id
}

// Draw deals one hand, folds it into the global tally and persists the
// result. On any failure the session is left unchanged.
func (s *Session) Draw(ctx context.Context) (DrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draw, err := s.dealer.Deal(s.deck, s.config.DrawCount)
	if err != nil {
		return DrawResult{}, fmt.Errorf("deal: %w", err)
	}
	cards, err := s.cardViews(draw.Cards)
	if err != nil {
		return DrawResult{}, err
	}

	next := s.global.Clone()
	next.RecordDraw(draw.Cards, draw.Number)
	if err := s.persistStats(ctx, next); err != nil {
		return DrawResult{}, err
	}
	s.global = next

	result := DrawResult{
		Cards:      cards,
		Number:     draw.Number,
		TopCards:   s.global.TopCards(s.config.TopK),
		TopNumbers: s.global.TopNumbers(),
		Draws:      s.global.Draws(),
	}
	s.logger.Debug("draw recorded", "number", draw.Number, "cards", draw.Keys())
	s.publish(EventDraw, result)
	return result, nil
}

// Simulate runs one accepted batch, merges it into the global tally and
// appends a history entry. Rejected attempts never reach global state.
func (s *Session) Simulate(ctx context.Context, opts SimulateOptions) (SimulateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batchSize := s.config.BatchSize
	if opts.BatchSize < 0 {
		return SimulateResult{}, fmt.Errorf("%w: batch_size must be positive, got %d", domain.ErrInvalidConfig, opts.BatchSize)
	}
	if limit := s.config.BatchSizeLimit(); opts.BatchSize > limit {
		return SimulateResult{}, fmt.Errorf("%w: batch_size %d exceeds the limit of %d", domain.ErrInvalidConfig, opts.BatchSize, limit)
	}
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}

	runner := batchrunner.New(s.dealer, batchrunner.RunnerConfig{
		MaxAttempts: s.config.MaxAttempts,
		OnAttemptRejected: func(summary batchrunner.AttemptSummary) {
			s.logger.Debug("batch attempt rejected", "attempt", summary.Attempt, "top_numbers", summary.TopNumbers)
			s.publish(EventAttemptRejected, summary)
		},
	})
	result, err := runner.RunBatch(ctx, batchrunner.RunBatchInput{
		Deck:      s.deck,
		BatchSize: batchSize,
		DrawCount: s.config.DrawCount,
		TopK:      s.config.TopK,
	})
	if err != nil {
		s.logger.Warn("batch failed", "attempts", result.Attempts, "batch_size", batchSize, "error", err)
		return SimulateResult{}, err
	}

	entry := domain.HistoryEntry{
		Seq:        len(s.history) + 1,
		TopCards:   result.TopCards,
		TopNumbers: []int{result.TopNumber},
		Attempts:   result.Attempts,
		Draws:      batchSize,
		CreatedAt:  s.now().UTC(),
	}
	next := s.global.Clone()
	next.Merge(result.Stats)

	if err := s.repo.CommitBatch(ctx, s.record(next), entry); err != nil {
		return SimulateResult{}, fmt.Errorf("commit batch %d for session %s: %w", entry.Seq, s.id, err)
	}
	s.global = next
	s.history = append(s.history, entry)

	out := SimulateResult{
		Entry:      entry.Clone(),
		TopCards:   s.global.TopCards(s.config.TopK),
		TopNumbers: s.global.TopNumbers(),
		Draws:      s.global.Draws(),
	}
	s.logger.Info("batch accepted",
		"seq", entry.Seq,
		"attempts", entry.Attempts,
		"top_number", result.TopNumber,
		"top_cards", entry.TopCards,
	)
	s.publish(EventBatchAccepted, out)
	return out, nil
}

// Reset clears global stats and history. The suit order is kept.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ResetSession(ctx, s.id, s.now().UTC()); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	s.global.Reset()
	s.history = nil
	s.logger.Info("session reset")
	s.publish(EventReset, nil)
	return nil
}

// SetSuitOrder replaces the suit order and rebuilds the deck. Accumulated
// counts are keyed by card and carry over.
func (s *Session) SetSuitOrder(ctx context.Context, raw []string) ([]string, error) {
	order, err := domain.NewSuitOrder(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deck := domain.BuildDeck(order)
	if deck.Len() < s.config.DrawCount {
		return nil, fmt.Errorf("%w: %d suits give %d cards, need %d", domain.ErrInvalidSuitOrder, len(order), deck.Len(), s.config.DrawCount)
	}

	prevSuits, prevDeck := s.suits, s.deck
	s.suits, s.deck = order, deck
	if err := s.persistStats(ctx, s.global); err != nil {
		s.suits, s.deck = prevSuits, prevDeck
		return nil, err
	}
	s.logger.Info("suit order changed", "suits", order.Strings())
	s.publish(EventSuitsChanged, order.Strings())
	return order.Strings(), nil
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:         s.id,
		Suits:      s.suits.Strings(),
		Config:     s.config,
		Stats:      s.global.Snapshot(),
		TopCards:   s.global.TopCards(s.config.TopK),
		TopNumbers: s.global.TopNumbers(),
		HistoryLen: len(s.history),
		CreatedAt:  s.createdAt,
	}
}

func (s *Session) History() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.HistoryEntry, 0, len(s.history))
	for _, entry := range s.history {
		out = append(out, entry.Clone())
	}
	return out
}

func (s *Session) cardViews(cards []domain.Card) ([]CardView, error) {
	out := make([]CardView, 0, len(cards))
	for _, card := range cards {
		realNumber, err := s.suits.RealNumber(card)
		if err != nil {
			return nil, err
		}
		out = append(out, CardView{
			Key:        card.Key(),
			Suit:       string(card.Suit),
			Value:      int(card.Value),
			Label:      card.Value.Label(),
			Color:      card.Color(),
			RealNumber: realNumber,
		})
	}
	return out, nil
}

// persistStats and record must be called with s.mu held.
func (s *Session) persistStats(ctx context.Context, tally *stats.Tally) error {
	if err := s.repo.UpsertSession(ctx, s.record(tally)); err != nil {
		return fmt.Errorf("persist session %s: %w", s.id, err)
	}
	return nil
}

func (s *Session) record(tally *stats.Tally) persistence.SessionRecord {
	return persistence.SessionRecord{
		SessionID: s.id,
		SuitOrder: s.suits.Strings(),
		Config:    s.config,
		Stats:     tally.Snapshot(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.now().UTC(),
	}
}

func (s *Session) publish(eventType EventType, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(Event{
		SessionID: s.id,
		Type:      eventType,
		Payload:   payload,
		At:        s.now().UTC(),
	})
}
