package domain

import "errors"

var (
	ErrInvalidSuitOrder   = errors.New("invalid suit order")
	ErrUnknownSuit        = errors.New("suit not in suit order")
	ErrInvalidDrawSize    = errors.New("draw count exceeds deck size")
	ErrNonConvergentBatch = errors.New("batch did not produce a single top number")
	ErrInvalidConfig      = errors.New("invalid simulation config")
)
