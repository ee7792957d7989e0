package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmptyQuery signals a blank retrieval query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidChunk signals a chunk that fails validation.
	ErrInvalidChunk = errors.New("invalid chunk")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrSchemaMismatch signals an index whose stored layout differs from the configured one.
	ErrSchemaMismatch = errors.New("index schema mismatch")
	// ErrIndexNotReady signals that the chunk index has not been created yet.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidInput signals a permanently malformed provider request.
	// Unlike transient provider failures it must never be retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderUnavailable signals that every retrieval stage failed after retries.
	ErrProviderUnavailable = errors.New("retrieval providers unavailable")
)

// DimensionMismatchError wraps ErrSchemaMismatch with the conflicting vector dimensions.
type DimensionMismatchError struct {
	Configured int
	Stored     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: configured dimension %d, stored dimension %d",
		ErrSchemaMismatch.Error(), e.Configured, e.Stored)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrSchemaMismatch }

// NewDimensionMismatch creates a schema mismatch error for conflicting vector dimensions.
func NewDimensionMismatch(configured, stored int) error {
	return &DimensionMismatchError{Configured: configured, Stored: stored}
}
