package storage

import "errors"

// Storage errors shared by all ledger backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a trade whose signature
	// already exists. The ledger is append-only; duplicates are the
	// expected result of upstream redelivery and are not a fault.
	ErrDuplicateKey = errors.New("duplicate key: trade already recorded")

	// ErrInvalidInput is returned when a trade fails precondition checks
	// (missing signature or mint). The ledger is left untouched.
	ErrInvalidInput = errors.New("invalid input")
)
