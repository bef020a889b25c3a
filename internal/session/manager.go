package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/persistence"
	"github.com/imaddar/drawsim/internal/rules"
	"github.com/imaddar/drawsim/internal/stats"
)

type ManagerConfig struct {
	Simulation domain.SimulationConfig
	Repository persistence.Repository
	// NewDealer builds one dealer per session. Nil means a crypto-backed dealer.
	NewDealer func() rules.Dealer
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	config   ManagerConfig
}

func NewManager(config ManagerConfig) (*Manager, error) {
	if err := config.Simulation.Validate(); err != nil {
		return nil, err
	}
	if config.Repository == nil {
		config.Repository = persistence.NewInMemoryRepository()
	}
	if config.NewDealer == nil {
		config.NewDealer = func() rules.Dealer { return rules.NewDealer(nil) }
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	return &Manager{
		sessions: make(map[string]*Session),
		config:   config,
	}, nil
}

// Create starts a session with the given suit order, or the default order
// when suits is empty.
func (m *Manager) Create(ctx context.Context, suits []string) (*Session, error) {
	order := domain.DefaultSuitOrder()
	if len(suits) > 0 {
		parsed, err := domain.NewSuitOrder(suits)
		if err != nil {
			return nil, err
		}
		order = parsed
	}
	deck := domain.BuildDeck(order)
	if deck.Len() < m.config.Simulation.DrawCount {
		return nil, fmt.Errorf("%w: %d suits give %d cards, need %d", domain.ErrInvalidSuitOrder, len(order), deck.Len(), m.config.Simulation.DrawCount)
	}

	now := m.config.Now().UTC()
	s := m.newSession(m.config.NewID(), order, m.config.Simulation, stats.NewTally(), nil, now)
	if err := s.persistStats(ctx, s.global); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.logger.Info("session created", "suits", order.Strings())
	return s, nil
}

// Get returns a live session, restoring it from the repository when it is
// not held in memory. The repository is read without holding the manager
// lock; when two restores race, the first one stored wins.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	restored, err := m.restore(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	m.sessions[id] = restored
	restored.logger.Info("session restored", "draws", restored.global.Draws(), "history_len", len(restored.history))
	return restored, nil
}

func (m *Manager) restore(ctx context.Context, id string) (*Session, error) {
	record, ok, err := m.config.Repository.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if !ok {
		return nil, persistence.ErrSessionNotFound
	}
	history, err := m.config.Repository.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load history for session %s: %w", id, err)
	}
	order, err := domain.NewSuitOrder(record.SuitOrder)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	config := record.Config
	if config.Validate() != nil {
		config = m.config.Simulation
	}
	return m.newSession(record.SessionID, order, config, stats.FromSnapshot(record.Stats), history, record.CreatedAt), nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) newSession(
	id string,
	order domain.SuitOrder,
	config domain.SimulationConfig,
	global *stats.Tally,
	history []domain.HistoryEntry,
	createdAt time.Time,
) *Session {
	return &Session{
		id:        id,
		suits:     order,
		deck:      domain.BuildDeck(order),
		config:    config,
		dealer:    m.config.NewDealer(),
		global:    global,
		history:   history,
		createdAt: createdAt,
		repo:      m.config.Repository,
		logger:    m.config.Logger.With("session_id", id),
		publisher: m.config.Publisher,
		now:       m.config.Now,
	}
}
