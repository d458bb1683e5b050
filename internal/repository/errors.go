package repository

import "errors"

var (
	// ErrNotFound is returned when a record with the requested id does
	// not exist. Batch operations return it when any id is missing.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPage is returned for pagination parameters outside the
	// valid range; pages are 1-based and sizes must be positive.
	ErrInvalidPage = errors.New("invalid pagination parameters")

	// ErrColumnNotAllowed is returned when a patch or ordering clause
	// names a column outside the record's allowlist.
	ErrColumnNotAllowed = errors.New("column not allowed")
)
