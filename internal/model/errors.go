package model

import "errors"

var (
	// ErrNotFound is returned when a user, schedule or link target does not
	// exist or resolves to an empty result.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFilter is returned for an unknown course, programme, group
	// or subgroup combination.
	ErrInvalidFilter = errors.New("invalid filter")
)
