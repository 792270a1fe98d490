// Package query defines the predicate language accepted by collection
// finders and the typed query builder.
//
// Predicate is a sealed interface: only types in this package implement it,
// so engine adapters can compile predicates with an exhaustive type switch.
//
// Field paths use document names (the JSON name of a struct field) and may
// be dotted to reach into embedded documents, e.g. "Address.City". The
// identity is addressed as "_id".
//
//	query.All(
//		query.Eq("Name", "Parent A"),
//		query.Gte("Age", 18),
//	)
package query
