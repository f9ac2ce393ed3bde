package store

import "errors"

var (
	// ErrNotFound is returned when a lookup by identifier finds no row.
	ErrNotFound = errors.New("store: not found")

	// ErrIllegalTransition is returned by UpdateProjectStatus when the
	// requested status change is not in the legal transition table.
	ErrIllegalTransition = errors.New("store: illegal project status transition")
)
