package stremerd

import "errors"

var (
	// ErrNotFound is returned when a path does not resolve to an entry.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath is returned when a path is malformed or escapes the
	// configured root.
	ErrInvalidPath = errors.New("invalid path")
	// ErrExists is returned when a create operation targets a name that is
	// already taken.
	ErrExists = errors.New("already exists")
	// ErrIO is returned when the underlying storage fails mid-operation.
	ErrIO = errors.New("i/o failure")
	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConfigured is returned when no storage root has been set up yet.
	// This is a normal, expected state for a fresh install, not a fault.
	ErrNotConfigured = errors.New("no storage configured")
)
