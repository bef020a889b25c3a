// Package stats accumulates card and number frequencies across draws.
//
// Ties in TopCards are broken by first insertion: the card key that was
// recorded earliest wins. TopNumbers returns every number at the maximum
// count in ascending order.
package stats

import (
	"sort"

	"github.com/imaddar/drawsim/internal/domain"
)

type Tally struct {
	cards     map[string]int
	cardOrder []string
	numbers   map[int]int
	draws     int
}

func NewTally() *Tally {
	return &Tally{
		cards:   make(map[string]int),
		numbers: make(map[int]int),
	}
}

// FromSnapshot rebuilds a tally, keeping the snapshot's card order.
func FromSnapshot(snapshot domain.StatsSnapshot) *Tally {
	t := NewTally()
	t.draws = snapshot.Draws
	for _, cc := range snapshot.Cards {
		t.addCard(cc.Key, cc.Count)
	}
	for _, nc := range snapshot.Numbers {
		t.numbers[nc.Number] += nc.Count
	}
	return t
}

func (t *Tally) RecordDraw(cards []domain.Card, number int) {
	for _, card := range cards {
		t.addCard(card.Key(), 1)
	}
	t.numbers[number]++
	t.draws++
}

// Merge adds every count of local into t.
func (t *Tally) Merge(local *Tally) {
	if local == nil {
		return
	}
	for _, key := range local.cardOrder {
		t.addCard(key, local.cards[key])
	}
	for number, count := range local.numbers {
		t.numbers[number] += count
	}
	t.draws += local.draws
}

func (t *Tally) TopCards(k int) []string {
	if k <= 0 || len(t.cardOrder) == 0 {
		return []string{}
	}

	keys := append([]string(nil), t.cardOrder...)
	sort.SliceStable(keys, func(i, j int) bool {
		return t.cards[keys[i]] > t.cards[keys[j]]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}

func (t *Tally) TopNumbers() []int {
	best := 0
	for _, count := range t.numbers {
		if count > best {
			best = count
		}
	}
	if best == 0 {
		return []int{}
	}

	top := make([]int, 0, 1)
	for number, count := range t.numbers {
		if count == best {
			top = append(top, number)
		}
	}
	sort.Ints(top)
	return top
}

func (t *Tally) CardCount(key string) int {
	return t.cards[key]
}

func (t *Tally) NumberCount(number int) int {
	return t.numbers[number]
}

func (t *Tally) CardKeys() int {
	return len(t.cardOrder)
}

func (t *Tally) Draws() int {
	return t.draws
}

func (t *Tally) Reset() {
	t.cards = make(map[string]int)
	t.cardOrder = nil
	t.numbers = make(map[int]int)
	t.draws = 0
}

func (t *Tally) Clone() *Tally {
	out := NewTally()
	out.Merge(t)
	return out
}

func (t *Tally) Snapshot() domain.StatsSnapshot {
	snapshot := domain.StatsSnapshot{
		Draws:   t.draws,
		Cards:   make([]domain.CardCount, 0, len(t.cardOrder)),
		Numbers: make([]domain.NumberCount, 0, len(t.numbers)),
	}
	for _, key := range t.cardOrder {
		snapshot.Cards = append(snapshot.Cards, domain.CardCount{Key: key, Count: t.cards[key]})
	}
	for number, count := range t.numbers {
		snapshot.Numbers = append(snapshot.Numbers, domain.NumberCount{Number: number, Count: count})
	}
	sort.Slice(snapshot.Numbers, func(i, j int) bool {
		return snapshot.Numbers[i].Number < snapshot.Numbers[j].Number
	})
	return snapshot
}

func (t *Tally) addCard(key string, count int) {
	if _, ok := t.cards[key]; !ok {
		t.cardOrder = append(t.cardOrder, key)
	}
	t.cards[key] += count
}
