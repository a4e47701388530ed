// Package resultstore provides persistence for replayed and scored
// conversations, keyed by run and conversation name.
package resultstore

import (
	"context"
	"errors"
)

// Store defines the interface for persistent result storage.
type Store interface {
	// Load retrieves a stored result by ID
	Load(ctx context.Context, id string) (*Result, error)

	// Save persists a result. An existing result with the same ID is replaced.
	Save(ctx context.Context, result *Result) error

	// Delete removes a result by ID. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// List returns result IDs matching the given criteria
	List(ctx context.Context, opts ListOptions) ([]string, error)
}

// ListOptions provides filtering and pagination options for listing results.
type ListOptions struct {
	// RunID filters results by the evaluation run that produced them.
	// If empty, all results are returned (subject to pagination).
	RunID string

	// Limit is the maximum number of result IDs to return.
	// If 0, a default limit (e.g., 100) should be applied.
	Limit int

	// Offset is the number of results to skip (for pagination).
	Offset int

	// SortBy specifies the field to sort by ("created_at", "updated_at").
	// If empty, implementation-specific default sorting is used.
	SortBy string

	// SortOrder specifies sort direction: "asc" or "desc".
	// If empty, defaults to "desc" (newest first).
	SortOrder string
}

// ErrNotFound is returned when a result doesn't exist in the store.
var ErrNotFound = errors.New("result not found")

// ErrInvalidID is returned when an invalid result ID is provided.
var ErrInvalidID = errors.New("invalid result ID")

// ErrInvalidResult is returned when a result record is invalid.
var ErrInvalidResult = errors.New("invalid result")
