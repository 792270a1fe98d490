// Package litedoc is the Composition Root for the litedoc object-document
// mapper.
//
// It connects the typed accessors (pkg/typed) and the model binding
// (pkg/odm) with the embedded storage adapter (pkg/adapters/sqlite) using
// the Hexagonal Architecture pattern: everything above pkg/core talks to the
// core.Engine boundary only.
//
// Features:
//
//   - **Declared Sets**: every *litedoc.Set[T] field of a model struct is bound on Open.
//   - **References**: fields tagged doc:"ref" are stored as DbRef stubs and
//     resolved on demand through Set.WithReferences().
//   - **Embedded Storage**: documents are JSON in SQLite, with a shared mode
//     for several processes on one file.
//   - **Native Queries**: predicates from pkg/query compile to SQL.
//
// Usage:
//
//	type Shop struct {
//		Customers *litedoc.Set[Customer]
//		Orders    *litedoc.Set[Order]
//	}
//
//	var shop Shop
//	db, err := litedoc.Open(&shop, "Filename=shop.db;Connection=shared", func(mb *litedoc.ModelBuilder) error {
//		return litedoc.Entity[Customer](mb, litedoc.Index("Email", true))
//	})
//	defer db.Close()
//
//	id, err := shop.Customers.Insert(ctx, &Customer{Name: "Ada"})
//	order, err := shop.Orders.WithReferences().FindByID(ctx, orderID)
package litedoc
