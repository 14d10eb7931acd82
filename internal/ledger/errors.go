package ledger

import "errors"

var (
	// ErrInvalidSplit is returned for an empty participant set or a
	// non-positive price.
	ErrInvalidSplit = errors.New("invalid split: participants must be non-empty and price positive")

	// ErrInvalidAmount is returned when a non-positive delta is passed
	// to the netting engine.
	ErrInvalidAmount = errors.New("invalid amount: delta must be positive")
)
