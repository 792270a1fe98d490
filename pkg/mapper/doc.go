// Package mapper describes entity types and converts entities to and from
// core.Document.
//
// An entity is a Go struct. Its fields are stored under their encoding/json
// names, with two conventions layered on top:
//
//	type Child struct {
//		ID     uuid.UUID `doc:"id"`            // identity, stored as "_id"
//		Name   string
//		Parent *Parent   `doc:"ref"`           // DbRef to the Parent collection
//		Pets   []Pet     `doc:"ref=Animals"`   // list of DbRefs to Animals
//		Cache  string    `doc:"-"`             // never stored
//	}
//
// Without a doc:"id" tag the field named ID or Id is the identity.
// Descriptors are computed once per type and cached.
package mapper
