package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by Save when the stored aggregate moved
	// past the version the caller loaded.
	ErrVersionConflict = errors.New("version conflict")
)
