package core

import (
	"context"
	"iter"

	"github.com/aretw0/litedoc/pkg/query"
)

// Engine is an opened embedded document store.
// Adhering to this interface keeps the mapper independent of the
// underlying storage mechanism.
type Engine interface {
	// Collection returns the named collection, creating it if it does not exist.
	// autoID is recorded on creation and decides how missing identifiers are filled.
	Collection(ctx context.Context, name string, autoID AutoID) (Collection, error)

	// CollectionNames lists every collection known to the engine, sorted.
	CollectionNames(ctx context.Context) ([]string, error)

	// DropCollection removes a collection and its documents.
	// It reports false when the collection did not exist.
	DropCollection(ctx context.Context, name string) (bool, error)

	// Close releases the underlying store. Collections obtained from the
	// engine must not be used afterwards.
	Close() error
}

// Collection is a handle to a named set of documents.
//
// Handles are values: Include returns a new handle and leaves the receiver
// untouched, so a base collection can be shared while derived handles carry
// inclusion directives.
type Collection interface {
	Name() string

	// Insert stores a new document and returns its identifier. A missing
	// identifier is generated according to the collection's AutoID and
	// written back into doc.
	Insert(ctx context.Context, doc Document) (any, error)

	// InsertMany inserts documents in order and returns how many were stored.
	InsertMany(ctx context.Context, docs []Document) (int, error)

	// Update overwrites the document with the same identifier.
	// It reports false, and writes nothing, when no such document exists.
	Update(ctx context.Context, doc Document) (bool, error)

	// Upsert inserts or overwrites. It reports true when the document was
	// inserted and false when an existing document was overwritten.
	Upsert(ctx context.Context, doc Document) (bool, error)

	// Delete removes a document by identifier and reports whether it existed.
	Delete(ctx context.Context, id any) (bool, error)

	// DeleteMany removes every matching document and returns the count.
	DeleteMany(ctx context.Context, pred query.Predicate) (int64, error)

	// FindByID returns the document or nil when it does not exist.
	FindByID(ctx context.Context, id any) (Document, error)

	// FindAll streams every document in insertion order.
	FindAll(ctx context.Context) iter.Seq2[Document, error]

	// Find streams documents matching pred in insertion order.
	Find(ctx context.Context, pred query.Predicate) iter.Seq2[Document, error]

	// Count returns the number of documents matching pred (nil matches all).
	Count(ctx context.Context, pred query.Predicate) (int64, error)

	// Query starts a composable query carrying this handle's includes.
	Query() Query

	// Include returns a handle whose reads resolve the DbRef found at path.
	// Paths are rooted at "$", e.g. "$.Parent" or "$.Rooms".
	Include(path string) Collection

	// EnsureIndex creates an index on a document field. It reports false
	// when an equivalent index already existed.
	EnsureIndex(ctx context.Context, field string, unique bool) (bool, error)

	// DropIndex removes the index on a field and reports whether it existed.
	DropIndex(ctx context.Context, field string) (bool, error)
}

// Query is an immutable query plan. Every builder method returns a new Query.
type Query interface {
	Where(pred query.Predicate) Query
	Include(path string) Query
	OrderBy(field string, order Order) Query
	Skip(n int) Query
	Limit(n int) Query

	// Seq executes the plan lazily. Ranging over the result again re-runs it.
	Seq(ctx context.Context) iter.Seq2[Document, error]

	// First returns the first matching document or nil.
	First(ctx context.Context) (Document, error)

	// Count ignores Skip, Limit and OrderBy.
	Count(ctx context.Context) (int64, error)
}
