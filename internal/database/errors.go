package database

import "errors"

var (
	// ErrNotFound is returned by Open when the database file is missing
	// and CreateIfNotExists is false.
	ErrNotFound = errors.New("database not found (use CreateIfNotExists option to create)")

	// ErrLocked is returned when the cross-process write lock cannot be taken.
	ErrLocked = errors.New("settings database is locked by another writer")
)
