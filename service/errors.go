package service

import "errors"

var (
	// ErrVersionConflict is returned when an optimistic write loses the race:
	// the stored version moved since the row was read. The account remains
	// eligible on a later run; the batch counts it as a failure and moves on.
	ErrVersionConflict = errors.New("account version conflict")

	// ErrAccountNotFound is returned when the referenced account does not exist
	ErrAccountNotFound = errors.New("account not found")
)
