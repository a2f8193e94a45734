package store

import (
	"context"
	"errors"
)

// Docs is the document store used by the whole backend. main sets it to the
// Firestore implementation; tests and local dev use the in-memory one.
var Docs Store

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one stored record. DataTo decodes the payload into a typed
// value; callers must not hold on to the raw payload.
type Document struct {
	ID     string
	Exists bool
	decode func(v interface{}) error
}

// DataTo decodes the document payload into v.
func (d Document) DataTo(v interface{}) error {
	if !d.Exists {
		return ErrNotFound
	}
	return d.decode(v)
}

// Filter is a single query predicate. Op is one of "==", ">=" or
// "array-contains".
type Filter struct {
	Path  string
	Op    string
	Value interface{}
}

// Update is a single field write. Path may be a dotted path into a nested
// map (e.g. "monthlyBudgets.2025-03").
type Update struct {
	Path  string
	Value interface{}
}

type serverTimestamp struct{}

// ServerTimestamp is a sentinel value for Update: the store replaces it with
// its own timestamp at write time.
var ServerTimestamp = serverTimestamp{}

type arrayUnion struct{ values []interface{} }
type arrayRemove struct{ values []interface{} }

// ArrayUnion appends the given values to an array field, skipping values
// already present.
func ArrayUnion(values ...interface{}) interface{} { return arrayUnion{values} }

// ArrayRemove removes every array element equal to one of the given values.
func ArrayRemove(values ...interface{}) interface{} { return arrayRemove{values} }

// Store is the contract the backend depends on: one-shot document operations
// plus live subscriptions to a document or a filtered query. Documents are
// mutated atomically one at a time; there are no cross-document transactions.
type Store interface {
	// Get fetches a single document. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Create stores data under a generated id and returns it.
	Create(ctx context.Context, collection string, data interface{}) (string, error)

	// Set stores data under the given id, replacing any existing document.
	Set(ctx context.Context, collection, id string, data interface{}) error

	// Update applies field-level updates to an existing document. Returns
	// ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, updates []Update) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Query runs a one-shot filtered read over a collection.
	Query(ctx context.Context, collection string, filters []Filter) ([]Document, error)

	// Watch subscribes to a filtered query. The channel receives the full
	// current result set on every change, starting with the initial state,
	// and is closed when ctx is cancelled.
	Watch(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error)

	// WatchDoc subscribes to a single document. Deletion is delivered as a
	// Document with Exists == false. The channel is closed when ctx is
	// cancelled.
	WatchDoc(ctx context.Context, collection, id string) (<-chan Document, error)

	Close() error
}
