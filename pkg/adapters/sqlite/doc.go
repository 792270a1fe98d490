// Package sqlite implements the core.Engine storage boundary on top of an
// embedded SQLite database, storing every document as JSON.
//
// # Layout
//
//   - One table per collection, named "doc_<collection>", with columns
//     id (canonical JSON of the document _id, primary key) and doc (JSON).
//   - Catalog table _collections records every collection.
//   - Catalog table _indexes records field indexes created by EnsureIndex.
//     Indexes are SQLite expression indexes on json_extract(doc, '$.<field>').
//
// # References
//
// A reference is stored as a DbRef stub {"$id": <id>, "$ref": "<collection>"}.
// Collection.Include and Query.Include resolve stubs found at a rooted path
// ("$.Parent", "$.Rooms", "$.Parent.Owner") into the referenced document at
// read time. Missing targets resolve to null. Includes are applied in the
// order they were added, so a nested path can reach into a document
// resolved by an earlier include.
//
// # Connection modes
//
//   - direct (default): one connection, rollback journal.
//   - shared: WAL journal and a busy timeout so several engines, in the same
//     process or not, can open the same file concurrently.
//
// Reads are executed in batches; no cursor is held open while results are
// yielded to the caller, so callers may issue further operations while
// ranging over a result.
package sqlite
