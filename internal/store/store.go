// Package store implements the client for the external vector store, the
// sole channel through which entities are persisted, fetched, and searched.
package store

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/entityd/internal/entity"
)

// Sentinel errors for store operations.
var (
	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrWriteFailed indicates the store rejected an upsert.
	ErrWriteFailed = errors.New("vector store write failed")

	// ErrReadFailed indicates a fetch failed for a reason other than absence.
	ErrReadFailed = errors.New("vector store read failed")

	// ErrDeleteFailed indicates the store reported a delete failure.
	ErrDeleteFailed = errors.New("vector store delete failed")

	// ErrSearchFailed indicates a ranked query failed.
	ErrSearchFailed = errors.New("vector store search failed")
)

// SearchOptions parameterizes a single ranked query.
type SearchOptions struct {
	// Query is the free-text query. It is lower-cased before transmission so
	// the same token always maps to the same ranking bucket upstream.
	Query string

	// Filters are equality constraints on entity fields.
	Filters map[string]any

	// Limit caps the result count. Zero means the default of 10.
	Limit int

	// Mode selects the store's ranking mode (hybrid, dense, sparse).
	// Empty means hybrid.
	Mode string
}

// SearchResult is one kind's ranked result set.
type SearchResult struct {
	Results []entity.Record
	Total   int
}

// Stats describes one kind's namespace.
type Stats struct {
	Total   int
	HasData bool
}

// Store is the contract the routers and the search aggregator consume.
//
// Every kind maps to its own store namespace, so a search scoped to one kind
// can never leak another kind's data even if the store's own filtering is
// imperfect. Implementations must treat a not-found fetch as absence, not an
// error, and a missing namespace in Stats as a normal empty state.
type Store interface {
	// Upsert writes rec under kind's namespace, stamping updated_at and,
	// on first persistence, created_at. Returns the record as persisted.
	Upsert(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error)

	// Get fetches one record by ID. Absence returns (nil, nil).
	Get(ctx context.Context, kind entity.Kind, id string) (entity.Record, error)

	// GetMany fetches a batch of records. Empty input returns an empty
	// slice without a network call.
	GetMany(ctx context.Context, kind entity.Kind, ids []string) ([]entity.Record, error)

	// Delete removes records by ID. Deleting an absent ID is not an error.
	Delete(ctx context.Context, kind entity.Kind, ids []string) error

	// Search issues one ranked query scoped to kind's namespace.
	Search(ctx context.Context, kind entity.Kind, opts SearchOptions) (*SearchResult, error)

	// Stats reports the size of kind's namespace. A namespace that has
	// never been written reports zeros, not an error.
	Stats(ctx context.Context, kind entity.Kind) (*Stats, error)
}
