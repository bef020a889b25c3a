package persistence

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/imaddar/drawsim/internal/domain"
)

func runRepositoryContractTests(t *testing.T, mkRepo func(t *testing.T) Repository) {
	t.Helper()

	t.Run("Contract_UpsertAndGetSession", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		record := sampleSessionRecord("s1")
		if err := repo.UpsertSession(ctx, record); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}

		got, ok, err := repo.GetSession(ctx, "s1")
		if err != nil || !ok {
			t.Fatalf("GetSession failed: ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(got.SuitOrder, record.SuitOrder) {
			t.Fatalf("unexpected suit order %v", got.SuitOrder)
		}
		if got.Config != record.Config {
			t.Fatalf("unexpected config %+v", got.Config)
		}
		if !reflect.DeepEqual(got.Stats, record.Stats) {
			t.Fatalf("unexpected stats %+v", got.Stats)
		}
	})

	t.Run("Contract_GetMissingSessionReportsNotFound", func(t *testing.T) {
		repo := mkRepo(t)
		_, ok, err := repo.GetSession(context.Background(), "missing")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if ok {
			t.Fatal("expected missing session")
		}
	})

	t.Run("Contract_UpsertOverwritesStats", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		record := sampleSessionRecord("s1")
		if err := repo.UpsertSession(ctx, record); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		record.Stats = domain.StatsSnapshot{
			Draws:   2,
			Cards:   []domain.CardCount{{Key: "A♠", Count: 2}},
			Numbers: []domain.NumberCount{{Number: 3, Count: 2}},
		}
		record.UpdatedAt = record.UpdatedAt.Add(time.Minute)
		if err := repo.UpsertSession(ctx, record); err != nil {
			t.Fatalf("second UpsertSession failed: %v", err)
		}
		got, _, err := repo.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if got.Stats.Draws != 2 || len(got.Stats.Cards) != 1 {
			t.Fatalf("expected overwritten stats, got %+v", got.Stats)
		}
	})

	t.Run("Contract_AppendHistoryRequiresSession", func(t *testing.T) {
		repo := mkRepo(t)
		err := repo.AppendHistory(context.Background(), "missing", sampleHistoryEntry(1))
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Contract_AppendAndListHistoryOrderedBySeq", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		if err := repo.UpsertSession(ctx, sampleSessionRecord("s1")); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		for _, seq := range []int{2, 1, 3} {
			if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(seq)); err != nil {
				t.Fatalf("AppendHistory seq %d failed: %v", seq, err)
			}
		}

		entries, err := repo.ListHistory(ctx, "s1")
		if err != nil {
			t.Fatalf("ListHistory failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for i, entry := range entries {
			if entry.Seq != i+1 {
				t.Fatalf("expected seq %d at %d, got %d", i+1, i, entry.Seq)
			}
		}
		if !reflect.DeepEqual(entries[0].TopCards, sampleHistoryEntry(1).TopCards) {
			t.Fatalf("unexpected top cards %v", entries[0].TopCards)
		}
		if !reflect.DeepEqual(entries[0].TopNumbers, []int{7}) {
			t.Fatalf("unexpected top numbers %v", entries[0].TopNumbers)
		}
	})

	t.Run("Contract_AppendDuplicateSeqReturnsErrHistoryEntryExists", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		if err := repo.UpsertSession(ctx, sampleSessionRecord("s1")); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(1)); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
		if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(1)); !errors.Is(err, ErrHistoryEntryExists) {
			t.Fatalf("expected ErrHistoryEntryExists, got %v", err)
		}
	})

	t.Run("Contract_ListHistoryForUnknownSessionIsEmpty", func(t *testing.T) {
		repo := mkRepo(t)
		entries, err := repo.ListHistory(context.Background(), "missing")
		if err != nil {
			t.Fatalf("ListHistory failed: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected no entries, got %d", len(entries))
		}
	})

	t.Run("Contract_ResetClearsHistoryAndStats", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		if err := repo.UpsertSession(ctx, sampleSessionRecord("s1")); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(1)); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}
		if err := repo.ResetSession(ctx, "s1", time.Now().UTC()); err != nil {
			t.Fatalf("ResetSession failed: %v", err)
		}

		got, ok, err := repo.GetSession(ctx, "s1")
		if err != nil || !ok {
			t.Fatalf("GetSession failed: ok=%v err=%v", ok, err)
		}
		if got.Stats.Draws != 0 || len(got.Stats.Cards) != 0 || len(got.Stats.Numbers) != 0 {
			t.Fatalf("expected empty stats after reset, got %+v", got.Stats)
		}
		entries, err := repo.ListHistory(ctx, "s1")
		if err != nil {
			t.Fatalf("ListHistory failed: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected empty history after reset, got %d", len(entries))
		}
		if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(1)); err != nil {
			t.Fatalf("seq 1 should be reusable after reset: %v", err)
		}
	})

	t.Run("Contract_CommitBatchWritesHistoryAndStats", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		record := sampleSessionRecord("s1")
		if err := repo.UpsertSession(ctx, record); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		record.Stats = batchStats()
		if err := repo.CommitBatch(ctx, record, sampleHistoryEntry(1)); err != nil {
			t.Fatalf("CommitBatch failed: %v", err)
		}

		got, ok, err := repo.GetSession(ctx, "s1")
		if err != nil || !ok {
			t.Fatalf("GetSession failed: ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(got.Stats, record.Stats) {
			t.Fatalf("expected committed stats %+v, got %+v", record.Stats, got.Stats)
		}
		entries, err := repo.ListHistory(ctx, "s1")
		if err != nil {
			t.Fatalf("ListHistory failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Seq != 1 {
			t.Fatalf("expected one committed entry, got %+v", entries)
		}
	})

	t.Run("Contract_CommitBatchDuplicateSeqKeepsStats", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		record := sampleSessionRecord("s1")
		if err := repo.UpsertSession(ctx, record); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
		if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(1)); err != nil {
			t.Fatalf("AppendHistory failed: %v", err)
		}

		next := record
		next.Stats = batchStats()
		if err := repo.CommitBatch(ctx, next, sampleHistoryEntry(1)); !errors.Is(err, ErrHistoryEntryExists) {
			t.Fatalf("expected ErrHistoryEntryExists, got %v", err)
		}
		got, _, err := repo.GetSession(ctx, "s1")
		if err != nil {
			t.Fatalf("GetSession failed: %v", err)
		}
		if !reflect.DeepEqual(got.Stats, record.Stats) {
			t.Fatalf("expected stats untouched by rejected batch, got %+v", got.Stats)
		}
	})

	t.Run("Contract_CommitBatchRequiresSession", func(t *testing.T) {
		repo := mkRepo(t)
		ctx := context.Background()
		if err := repo.CommitBatch(ctx, sampleSessionRecord("missing"), sampleHistoryEntry(1)); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
		if _, ok, err := repo.GetSession(ctx, "missing"); err != nil || ok {
			t.Fatalf("expected no session to be created: ok=%v err=%v", ok, err)
		}
	})

	t.Run("Contract_ResetMissingSession", func(t *testing.T) {
		repo := mkRepo(t)
		if err := repo.ResetSession(context.Background(), "missing", time.Now().UTC()); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

func sampleSessionRecord(id string) SessionRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return SessionRecord{
		SessionID: id,
		SuitOrder: []string{"♥", "♠", "♦", "♣"},
		Config:    domain.DefaultSimulationConfig(),
		Stats: domain.StatsSnapshot{
			Draws:   1,
			Cards:   []domain.CardCount{{Key: "A♥", Count: 1}, {Key: "4♦", Count: 1}},
			Numbers: []domain.NumberCount{{Number: 7, Count: 1}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func batchStats() domain.StatsSnapshot {
	return domain.StatsSnapshot{
		Draws:   101,
		Cards:   []domain.CardCount{{Key: "A♥", Count: 40}, {Key: "4♦", Count: 12}},
		Numbers: []domain.NumberCount{{Number: 7, Count: 60}, {Number: 2, Count: 41}},
	}
}

func sampleHistoryEntry(seq int) domain.HistoryEntry {
	return domain.HistoryEntry{
		Seq:        seq,
		TopCards:   []string{"A♥", "4♦", "10♣"},
		TopNumbers: []int{7},
		Attempts:   1,
		Draws:      100,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}
