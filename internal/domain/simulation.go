package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDrawCount   = 6
	DefaultBatchSize   = 100
	DefaultTopK        = 6
	DefaultMaxAttempts = 1000
	// DefaultMaxBatchSize caps per-request batch overrides.
	DefaultMaxBatchSize = 100 * DefaultBatchSize
)

type SimulationConfig struct {
	DrawCount   int `json:"draw_count"`
	BatchSize   int `json:"batch_size"`
	TopK        int `json:"top_k"`
	MaxAttempts int `json:"max_attempts"`
	// MaxBatchSize bounds a batch size override. Zero means
	// DefaultMaxBatchSize, or BatchSize when that is larger.
	MaxBatchSize int `json:"max_batch_size,omitempty"`
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		DrawCount:    DefaultDrawCount,
		BatchSize:    DefaultBatchSize,
		TopK:         DefaultTopK,
		MaxAttempts:  DefaultMaxAttempts,
		MaxBatchSize: DefaultMaxBatchSize,
	}
}

func (c SimulationConfig) Validate() error {
	if c.DrawCount < 1 {
		return fmt.Errorf("%w: draw_count must be at least 1, got %d", ErrInvalidConfig, c.DrawCount)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be at least 1, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1, got %d", ErrInvalidConfig, c.TopK)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.MaxBatchSize < 0 {
		return fmt.Errorf("%w: max_batch_size must not be negative, got %d", ErrInvalidConfig, c.MaxBatchSize)
	}
	if c.MaxBatchSize > 0 && c.BatchSize > c.MaxBatchSize {
		return fmt.Errorf("%w: batch_size %d exceeds max_batch_size %d", ErrInvalidConfig, c.BatchSize, c.MaxBatchSize)
	}
	return nil
}

func (c SimulationConfig) BatchSizeLimit() int {
	if c.MaxBatchSize > 0 {
		return c.MaxBatchSize
	}
	return max(DefaultMaxBatchSize, c.BatchSize)
}

// HistoryEntry is the headline result of one accepted batch.
type HistoryEntry struct {
	Seq        int       `json:"seq"`
	TopCards   []string  `json:"top_cards"`
	TopNumbers []int     `json:"top_numbers"`
	Attempts   int       `json:"attempts"`
	Draws      int       `json:"draws"`
	CreatedAt  time.Time `json:"created_at"`
}

func (e HistoryEntry) Clone() HistoryEntry {
	out := e
	out.TopCards = append([]string(nil), e.TopCards...)
	out.TopNumbers = append([]int(nil), e.TopNumbers...)
	return out
}

// Line renders the entry the way the history log lists it, e.g.
// "Simulation 3: Top Cards - A♠, 4♦, Top Number(s) - 7".
func (e HistoryEntry) Line() string {
	numbers := make([]string, len(e.TopNumbers))
	for i, n := range e.TopNumbers {
		numbers[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("Simulation %d: Top Cards - %s, Top Number(s) - %s",
		e.Seq, strings.Join(e.TopCards, ", "), strings.Join(numbers, ", "))
}

type CardCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type NumberCount struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

// StatsSnapshot is the serializable form of accumulated counts. Slices keep
// first-insertion order so tie-breaks survive a round trip.
type StatsSnapshot struct {
	Draws   int           `json:"draws"`
	Cards   []CardCount   `json:"cards"`
	Numbers []NumberCount `json:"numbers"`
}

func (s StatsSnapshot) Clone() StatsSnapshot {
	return StatsSnapshot{
		Draws:   s.Draws,
		Cards:   append([]CardCount(nil), s.Cards...),
		Numbers: append([]NumberCount(nil), s.Numbers...),
	}
}
