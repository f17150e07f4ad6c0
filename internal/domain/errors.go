package domain

import "errors"

var (
	// ErrInvalidQuery marks caller input that failed validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrLocationNotFound is returned when a place name cannot be geocoded.
	ErrLocationNotFound = errors.New("location not found")
)
