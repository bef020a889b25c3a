package rules

import (
	"fmt"

	"github.com/imaddar/drawsim/internal/domain"
)

type Shuffler interface {
	Shuffle([]domain.Card) error
}

// Dealer turns a deck into a draw: unique cards plus an independent number.
type Dealer interface {
	Deal(deck domain.Deck, count int) (domain.Draw, error)
}

type fisherYatesShuffler struct {
	source Source
}

type standardDealer struct {
	shuffler Shuffler
	numbers  Source
}

// NewShuffler returns an in-place Fisher-Yates shuffler driven by source.
func NewShuffler(source Source) Shuffler {
	if source == nil {
		source = NewCryptoSource()
	}
	return fisherYatesShuffler{source: source}
}

func NewCryptoShuffler() Shuffler {
	return NewShuffler(NewCryptoSource())
}

func NewSeededShuffler(seed uint64) Shuffler {
	return NewShuffler(NewSeededSource(seed))
}

// NewDealer shuffles and samples numbers from the same source, in separate calls.
func NewDealer(source Source) Dealer {
	if source == nil {
		source = NewCryptoSource()
	}
	return standardDealer{shuffler: NewShuffler(source), numbers: source}
}

func (s fisherYatesShuffler) Shuffle(cards []domain.Card) error {
	for i := len(cards) - 1; i > 0; i-- {
		j, err := s.source.IntN(i + 1)
		if err != nil {
			return fmt.Errorf("shuffle failed: %w", err)
		}
		cards[i], cards[j] = cards[j], cards[i]
	}
	return nil
}

// Deal never mutates deck; it shuffles a private copy.
func (d standardDealer) Deal(deck domain.Deck, count int) (domain.Draw, error) {
	if count < 1 || count > deck.Len() {
		return domain.Draw{}, fmt.Errorf("%w: requested %d from %d cards", domain.ErrInvalidDrawSize, count, deck.Len())
	}

	cards := append([]domain.Card(nil), deck.Cards...)
	if err := d.shuffler.Shuffle(cards); err != nil {
		return domain.Draw{}, err
	}

	n, err := d.numbers.IntN(domain.NumberMax - domain.NumberMin + 1)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("draw number failed: %w", err)
	}

	return domain.Draw{
		Cards:  append([]domain.Card(nil), cards[:count]...),
		Number: n + domain.NumberMin,
	}, nil
}
