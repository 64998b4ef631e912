// Package persistence defines the sentinel errors shared between the
// application services and the storage implementations beneath them.
package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when an insert collides with a unique index.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConflict is returned when a guarded update finds the record in a
	// different state than required (e.g. ending a turn that is no longer
	// active).
	ErrConflict = errors.New("persistence: conflicting state")
	// ErrConstraintViolation is returned when a write breaks a check or
	// foreign key constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
