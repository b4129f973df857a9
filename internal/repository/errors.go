package repository

import "errors"

var (
	// ErrNotFound is returned when an operation targets a missing record.
	// Delete is the exception: it is idempotent and never reports absence.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict is returned when registration collides with an existing
	// email (case-insensitive).
	ErrConflict = errors.New("repository: already exists")

	// ErrUnauthorized is returned on any credential mismatch. Wrong email
	// and wrong password are deliberately indistinguishable.
	ErrUnauthorized = errors.New("repository: unauthorized")
)
