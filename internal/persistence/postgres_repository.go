package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/imaddar/drawsim/internal/domain"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *postgresRepository) UpsertSession(ctx context.Context, record SessionRecord) error {
	suitOrder, config, stats, err := marshalSessionRecord(record)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO sessions (
  session_id, suit_order, config, stats, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (session_id) DO UPDATE SET
  suit_order = EXCLUDED.suit_order,
  config = EXCLUDED.config,
  stats = EXCLUDED.stats,
  updated_at = EXCLUDED.updated_at
`
	_, err = r.db.ExecContext(ctx, q,
		record.SessionID,
		suitOrder,
		config,
		stats,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return err
}

func (r *postgresRepository) GetSession(ctx context.Context, sessionID string) (SessionRecord, bool, error) {
	const q = `
SELECT session_id, suit_order, config, stats, created_at, updated_at
FROM sessions
WHERE session_id = $1
`
	var out SessionRecord
	var suitOrderRaw, configRaw, statsRaw []byte
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(
		&out.SessionID,
		&suitOrderRaw,
		&configRaw,
		&statsRaw,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, false, nil
	}
	if err != nil {
		return SessionRecord{}, false, err
	}
	if err := json.Unmarshal(suitOrderRaw, &out.SuitOrder); err != nil {
		return SessionRecord{}, false, fmt.Errorf("unmarshal suit_order for session %s: %w", sessionID, err)
	}
	if err := json.Unmarshal(configRaw, &out.Config); err != nil {
		return SessionRecord{}, false, fmt.Errorf("unmarshal config for session %s: %w", sessionID, err)
	}
	if err := json.Unmarshal(statsRaw, &out.Stats); err != nil {
		return SessionRecord{}, false, fmt.Errorf("unmarshal stats for session %s: %w", sessionID, err)
	}
	return out, true, nil
}

func (r *postgresRepository) AppendHistory(ctx context.Context, sessionID string, entry domain.HistoryEntry) error {
	return insertHistoryEntry(ctx, r.db, sessionID, entry)
}

func (r *postgresRepository) CommitBatch(ctx context.Context, record SessionRecord, entry domain.HistoryEntry) error {
	suitOrder, config, stats, err := marshalSessionRecord(record)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
UPDATE sessions
SET suit_order = $2, config = $3, stats = $4, updated_at = $5
WHERE session_id = $1
`
	result, err := tx.ExecContext(ctx, q, record.SessionID, suitOrder, config, stats, record.UpdatedAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	if err := insertHistoryEntry(ctx, tx, record.SessionID, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func insertHistoryEntry(ctx context.Context, db execer, sessionID string, entry domain.HistoryEntry) error {
	topCards, err := json.Marshal(entry.TopCards)
	if err != nil {
		return fmt.Errorf("marshal top cards: %w", err)
	}
	topNumbers, err := json.Marshal(entry.TopNumbers)
	if err != nil {
		return fmt.Errorf("marshal top numbers: %w", err)
	}

	const q = `
INSERT INTO history_entries (
  session_id, seq, top_cards, top_numbers, attempts, draws, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err = db.ExecContext(ctx, q,
		sessionID,
		entry.Seq,
		topCards,
		topNumbers,
		entry.Attempts,
		entry.Draws,
		entry.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrSessionNotFound
	}
	if isUniqueViolation(err) {
		return ErrHistoryEntryExists
	}
	return err
}

func (r *postgresRepository) ListHistory(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	const q = `
SELECT seq, top_cards, top_numbers, attempts, draws, created_at
FROM history_entries
WHERE session_id = $1
ORDER BY seq ASC
`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var entry domain.HistoryEntry
		var topCardsRaw, topNumbersRaw []byte
		if err := rows.Scan(
			&entry.Seq,
			&topCardsRaw,
			&topNumbersRaw,
			&entry.Attempts,
			&entry.Draws,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(topCardsRaw, &entry.TopCards); err != nil {
			return nil, fmt.Errorf("unmarshal top_cards for session %s seq %d: %w", sessionID, entry.Seq, err)
		}
		if err := json.Unmarshal(topNumbersRaw, &entry.TopNumbers); err != nil {
			return nil, fmt.Errorf("unmarshal top_numbers for session %s seq %d: %w", sessionID, entry.Seq, err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *postgresRepository) ResetSession(ctx context.Context, sessionID string, at time.Time) error {
	emptyStats, err := json.Marshal(domain.StatsSnapshot{})
	if err != nil {
		return fmt.Errorf("marshal empty stats: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `UPDATE sessions SET stats = $2, updated_at = $3 WHERE session_id = $1`, sessionID, emptyStats, at)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

func marshalSessionRecord(record SessionRecord) (suitOrder, config, stats []byte, err error) {
	if suitOrder, err = json.Marshal(record.SuitOrder); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal suit order: %w", err)
	}
	if config, err = json.Marshal(record.Config); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal config: %w", err)
	}
	if stats, err = json.Marshal(record.Stats); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal stats: %w", err)
	}
	return suitOrder, config, stats, nil
}

func isUniqueViolation(err error) bool {
	return hasSQLState(err, "23505")
}

func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, "23503")
}

func hasSQLState(err error, code string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == code
}
