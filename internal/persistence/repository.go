package persistence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/imaddar/drawsim/internal/domain"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrHistoryEntryExists = errors.New("history entry already exists")
)

type SessionRecord struct {
	SessionID string
	SuitOrder []string
	Config    domain.SimulationConfig
	Stats     domain.StatsSnapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	UpsertSession(ctx context.Context, record SessionRecord) error
	GetSession(ctx context.Context, sessionID string) (SessionRecord, bool, error)
	AppendHistory(ctx context.Context, sessionID string, entry domain.HistoryEntry) error
	ListHistory(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error)
	// CommitBatch appends entry and replaces the session record as one unit.
	// On error neither write is visible.
	CommitBatch(ctx context.Context, record SessionRecord, entry domain.HistoryEntry) error
	// ResetSession clears the session's history and stats in one step.
	ResetSession(ctx context.Context, sessionID string, at time.Time) error
}

type inMemoryRepository struct {
	mu sync.RWMutex

	sessions map[string]SessionRecord
	history  map[string][]domain.HistoryEntry
}

func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		sessions: make(map[string]SessionRecord),
		history:  make(map[string][]domain.HistoryEntry),
	}
}

func (r *inMemoryRepository) UpsertSession(_ context.Context, record SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[record.SessionID] = cloneSessionRecord(record)
	return nil
}

func (r *inMemoryRepository) GetSession(_ context.Context, sessionID string) (SessionRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.sessions[sessionID]
	if !ok {
		return SessionRecord{}, false, nil
	}
	return cloneSessionRecord(record), true, nil
}

func (r *inMemoryRepository) AppendHistory(_ context.Context, sessionID string, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkAppendLocked(sessionID, entry); err != nil {
		return err
	}
	r.history[sessionID] = append(r.history[sessionID], entry.Clone())
	return nil
}

func (r *inMemoryRepository) CommitBatch(_ context.Context, record SessionRecord, entry domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkAppendLocked(record.SessionID, entry); err != nil {
		return err
	}
	r.sessions[record.SessionID] = cloneSessionRecord(record)
	r.history[record.SessionID] = append(r.history[record.SessionID], entry.Clone())
	return nil
}

func (r *inMemoryRepository) checkAppendLocked(sessionID string, entry domain.HistoryEntry) error {
	if _, ok := r.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	for _, existing := range r.history[sessionID] {
		if existing.Seq == entry.Seq {
			return ErrHistoryEntryExists
		}
	}
	return nil
}

func (r *inMemoryRepository) ListHistory(_ context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := r.history[sessionID]
	out := make([]domain.HistoryEntry, 0, len(records))
	for _, entry := range records {
		out = append(out, entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *inMemoryRepository) ResetSession(_ context.Context, sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	record.Stats = domain.StatsSnapshot{}
	record.UpdatedAt = at
	r.sessions[sessionID] = record
	delete(r.history, sessionID)
	return nil
}

func cloneSessionRecord(record SessionRecord) SessionRecord {
	out := record
	out.SuitOrder = append([]string(nil), record.SuitOrder...)
	out.Stats = record.Stats.Clone()
	return out
}
