package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/imaddar/drawsim/internal/domain"
)

func TestInMemoryRepository_Contract(t *testing.T) {
	t.Parallel()
	runRepositoryContractTests(t, func(t *testing.T) Repository {
		t.Helper()
		return NewInMemoryRepository()
	})
}

func TestInMemoryRepository_ReturnsDefensiveCopies(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryRepository()
	ctx := context.Background()
	record := sampleSessionRecord("s1")
	if err := repo.UpsertSession(ctx, record); err != nil {
		t.Fatalf("UpsertSession failed: %v", err)
	}
	record.SuitOrder[0] = "X"
	record.Stats.Cards[0].Count = 99

	got, _, err := repo.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.SuitOrder[0] != "♥" || got.Stats.Cards[0].Count != 1 {
		t.Fatalf("stored record aliased caller input: %+v", got)
	}

	got.Stats.Numbers[0].Count = 42
	again, _, _ := repo.GetSession(ctx, "s1")
	if again.Stats.Numbers[0].Count != 1 {
		t.Fatal("returned record aliased stored state")
	}

	if err := repo.AppendHistory(ctx, "s1", sampleHistoryEntry(1)); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	entries, _ := repo.ListHistory(ctx, "s1")
	entries[0].TopCards[0] = "mutated"
	entries, _ = repo.ListHistory(ctx, "s1")
	if entries[0].TopCards[0] != "A♥" {
		t.Fatal("history entry aliased stored state")
	}
}

func TestInMemoryRepository_ConcurrentAppendHistory(t *testing.T) {
	t.Parallel()

	repo := NewInMemoryRepository()
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		if err := repo.UpsertSession(ctx, sampleSessionRecord(fmt.Sprintf("s%d", i))); err != nil {
			t.Fatalf("UpsertSession failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("s%d", i)
			for seq := 1; seq <= 25; seq++ {
				entry := domain.HistoryEntry{Seq: seq, TopNumbers: []int{seq%domain.NumberMax + 1}}
				if err := repo.AppendHistory(ctx, sessionID, entry); err != nil {
					t.Errorf("AppendHistory %s/%d failed: %v", sessionID, seq, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		entries, err := repo.ListHistory(ctx, fmt.Sprintf("s%d", i))
		if err != nil {
			t.Fatalf("ListHistory failed: %v", err)
		}
		if len(entries) != 25 {
			t.Fatalf("session s%d: expected 25 entries, got %d", i, len(entries))
		}
	}
}
