package repository

import "errors"

var (
	// ErrNotFound indicates the query returned no rows.
	ErrNotFound = errors.New("repository: not found")
	// ErrEmailExists indicates a user with the same email already exists.
	ErrEmailExists = errors.New("repository: email already exists")
	// ErrConflict indicates a compare-and-swap write matched no rows.
	ErrConflict = errors.New("repository: stale write conflict")
)
