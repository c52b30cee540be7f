// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Job-related errors.
var (
	ErrJobNotFound           = errors.New("job not found")
	ErrEmptyEntityTypes      = errors.New("entity types cannot be empty")
	ErrUnsupportedEntityType = errors.New("unsupported entity type")
)

// Vector-related errors.
var (
	ErrVectorNotFound    = errors.New("vector record not found")
	ErrVectorBackendDown = errors.New("vector backend unavailable")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrZeroVector        = errors.New("vector has zero magnitude")
	ErrEmptyQuery        = errors.New("search query cannot be empty")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
