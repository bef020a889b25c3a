package rules

import (
	cryptorand "crypto/rand"
	"fmt"
	"math/big"
	"math/rand/v2"
)

// Source yields uniform integers in [0, n).
type Source interface {
	IntN(n int) (int, error)
}

type cryptoSource struct{}

type seededSource struct {
	rng *rand.Rand
}

func NewCryptoSource() Source {
	return cryptoSource{}
}

// NewSeededSource returns a reproducible source. Not safe for concurrent use.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (cryptoSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("source bound must be positive, got %d", n)
	}
	v, err := cryptorand.Int(cryptorand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("crypto source failed: %w", err)
	}
	return int(v.Int64()), nil
}

func (s *seededSource) IntN(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("source bound must be positive, got %d", n)
	}
	return s.rng.IntN(n), nil
}
