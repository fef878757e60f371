package engine

import "errors"

var (
	// ErrNotFound is returned when a statement references a name that is
	// neither in the catalog nor bound to the call
	ErrNotFound = errors.New("catalog object not found")

	// ErrAlreadyExists is returned when creating or registering a name that
	// is already taken
	ErrAlreadyExists = errors.New("catalog object already exists")

	// ErrClosed is returned by every method once the DB is closed
	ErrClosed = errors.New("database is closed")
)
