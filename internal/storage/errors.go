package storage

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrConflict is returned when a concurrent transaction modified the
	// same group. The whole operation may be retried.
	ErrConflict = errors.New("concurrent modification")
)
