package storage

import "errors"

// Storage errors shared by all CurveStore backends.
var (
	// ErrInvalidInput is returned when input validation fails.
	// No row of the offending batch is written.
	ErrInvalidInput = errors.New("invalid input")
)
