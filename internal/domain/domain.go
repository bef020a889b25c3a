package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ValuesPerSuit = 10
	NumberMin     = 1
	NumberMax     = 10
)

type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitClubs    Suit = "♣"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
)

// IsRed reports whether the suit renders red.
func (s Suit) IsRed() bool {
	return s == SuitHearts || s == SuitDiamonds
}

type Value uint8

func NewValue(value int) (Value, error) {
	if value < 1 || value > ValuesPerSuit {
		return 0, fmt.Errorf("value must be in range 1..=%d, got %d", ValuesPerSuit, value)
	}
	return Value(value), nil
}

// Label renders 1 as "A" and everything else as its digits.
func (v Value) Label() string {
	if v == 1 {
		return "A"
	}
	return strconv.Itoa(int(v))
}

type Card struct {
	Suit  Suit  `json:"suit"`
	Value Value `json:"value"`
}

func NewCard(suit Suit, value Value) Card {
	return Card{Suit: suit, Value: value}
}

// Key identifies a card in the stats tables, e.g. "A♠" or "10♦".
func (c Card) Key() string {
	return c.Value.Label() + string(c.Suit)
}

func (c Card) Color() string {
	if c.Suit.IsRed() {
		return "red"
	}
	return "black"
}

func (c Card) String() string {
	return c.Key()
}

// SuitOrder is the caller-controlled ordering used to build decks.
type SuitOrder []Suit

func DefaultSuitOrder() SuitOrder {
	return SuitOrder{SuitSpades, SuitClubs, SuitHearts, SuitDiamonds}
}

func NewSuitOrder(raw []string) (SuitOrder, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: at least one suit is required", ErrInvalidSuitOrder)
	}

	order := make(SuitOrder, 0, len(raw))
	seen := make(map[Suit]struct{}, len(raw))
	for _, symbol := range raw {
		suit := Suit(strings.TrimSpace(symbol))
		if suit == "" {
			return nil, fmt.Errorf("%w: blank suit symbol", ErrInvalidSuitOrder)
		}
		if _, exists := seen[suit]; exists {
			return nil, fmt.Errorf("%w: duplicate suit %q", ErrInvalidSuitOrder, suit)
		}
		seen[suit] = struct{}{}
		order = append(order, suit)
	}
	return order, nil
}

func (o SuitOrder) Index(suit Suit) int {
	for i, s := range o {
		if s == suit {
			return i
		}
	}
	return -1
}

// RealNumber maps a card onto 1..10*len(o) by the position of its suit.
func (o SuitOrder) RealNumber(card Card) (int, error) {
	idx := o.Index(card.Suit)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSuit, card.Suit)
	}
	return int(card.Value) + idx*ValuesPerSuit, nil
}

func (o SuitOrder) Strings() []string {
	out := make([]string, len(o))
	for i, s := range o {
		out[i] = string(s)
	}
	return out
}

func (o SuitOrder) Clone() SuitOrder {
	return append(SuitOrder(nil), o...)
}

type Deck struct {
	Cards []Card `json:"cards"`
}

// BuildDeck lays out every value of order[0], then order[1], and so on.
func BuildDeck(order SuitOrder) Deck {
	cards := make([]Card, 0, len(order)*ValuesPerSuit)
	for _, suit := range order {
		for value := 1; value <= ValuesPerSuit; value++ {
			cards = append(cards, NewCard(suit, Value(value)))
		}
	}
	return Deck{Cards: cards}
}

func (d Deck) Len() int {
	return len(d.Cards)
}

// Draw is one hand of unique cards plus an independently drawn number.
type Draw struct {
	Cards  []Card `json:"cards"`
	Number int    `json:"number"`
}

func (d Draw) Keys() []string {
	keys := make([]string, len(d.Cards))
	for i, card := range d.Cards {
		keys[i] = card.Key()
	}
	return keys
}
