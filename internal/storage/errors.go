package storage

import "errors"

// Store errors. Results, trades, snapshots and price bars are written once
// per key; strategies are never updated in place.
var (
	// ErrNotFound is returned when no record has the requested key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a key is already stored.
	ErrDuplicateKey = errors.New("duplicate key: record already stored")

	// ErrInvalidInput is returned when a record is missing its key or
	// violates a schema constraint.
	ErrInvalidInput = errors.New("invalid record")
)
