// Package core defines the storage boundary between the object-document
// mapper and the embedded engine that persists documents.
package core

import "fmt"

// Document is the engine-level representation of a stored entity.
// Keys are field names; values are JSON-compatible Go values.
type Document map[string]any

// Reserved document keys.
const (
	// IDKey holds the primary identifier of a document.
	IDKey = "_id"
	// RefIDKey holds the identifier of the referenced document inside a DbRef stub.
	RefIDKey = "$id"
	// RefCollectionKey holds the collection name inside a DbRef stub.
	RefCollectionKey = "$ref"
)

// ID returns the identifier of the document, if present and non-nil.
func (d Document) ID() (any, bool) {
	id, ok := d[IDKey]
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// NewRef builds the DbRef stub stored in place of a referenced document.
func NewRef(id any, collection string) Document {
	return Document{RefIDKey: id, RefCollectionKey: collection}
}

// AsRef reports whether v is a DbRef stub and returns its parts.
func AsRef(v any) (id any, collection string, ok bool) {
	var m map[string]any
	switch t := v.(type) {
	case Document:
		m = t
	case map[string]any:
		m = t
	default:
		return nil, "", false
	}
	if len(m) != 2 {
		return nil, "", false
	}
	collection, ok = m[RefCollectionKey].(string)
	if !ok {
		return nil, "", false
	}
	id, ok = m[RefIDKey]
	return id, collection, ok
}

// AutoID selects how an engine fills a missing identifier on insert.
type AutoID int

const (
	// AutoIDNone rejects documents without an identifier.
	AutoIDNone AutoID = iota
	// AutoIDGUID generates a random 128-bit identifier in canonical string form.
	AutoIDGUID
	// AutoIDInt64 assigns the next integer after the current maximum.
	AutoIDInt64
)

func (a AutoID) String() string {
	switch a {
	case AutoIDNone:
		return "none"
	case AutoIDGUID:
		return "guid"
	case AutoIDInt64:
		return "int64"
	default:
		return fmt.Sprintf("AutoID(%d)", int(a))
	}
}

// ParseAutoID is the inverse of AutoID.String.
func ParseAutoID(s string) (AutoID, error) {
	switch s {
	case "none", "":
		return AutoIDNone, nil
	case "guid":
		return AutoIDGUID, nil
	case "int64":
		return AutoIDInt64, nil
	}
	return AutoIDNone, fmt.Errorf("unknown auto id %q", s)
}

// Order is the direction of a sort clause.
type Order int

const (
	Ascending Order = iota
	Descending
)
