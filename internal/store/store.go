// Package store defines the document-store contract the load stage depends on
// and its sqlite-backed implementation.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections used by the load stage.
const (
	CompaniesCollection = "companies"
	ContractsCollection = "contracts"
)

// ErrNotFound is returned by Get when no document exists at the id.
var ErrNotFound = errors.New("document not found")

// MergeFunc maps the currently stored document to its replacement. It runs
// inside the store's atomic read-modify-write cycle and must not touch the
// store itself.
type MergeFunc func(existing json.RawMessage) (any, error)

// DocumentStore is the generic contract of the search/aggregation backend:
// upsert-by-id, get-by-id and a conditional merge update. Implementations
// must make MergeUpsert atomic per (collection, id).
type DocumentStore interface {
	// Get returns the raw document at id or ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)

	// Upsert stores the document at id, fully replacing any prior content.
	Upsert(ctx context.Context, collection, id string, doc any) error

	// MergeUpsert creates the document from initial when absent, otherwise
	// replaces it with the result of merge applied to the stored content.
	MergeUpsert(ctx context.Context, collection, id string, initial any, merge MergeFunc) error
}
