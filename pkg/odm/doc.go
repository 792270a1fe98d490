// Package odm binds typed collections declared on an application struct to
// an embedded document engine.
//
//	type Library struct {
//		Books   *typed.Set[Book]
//		Authors *typed.Set[Author]
//	}
//
//	var lib Library
//	ctx, err := odm.Open(&lib, "Filename=library.db;Connection=shared", func(mb *odm.ModelBuilder) error {
//		return odm.Entity[Book](mb, odm.Index("Title", false))
//	})
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//
//	book, err := lib.Books.WithReferences().FindByID(ctx, id)
//
// Every *typed.Set[T] field of the model, exported or not and including
// those of embedded structs, is non-nil once Open returns without error.
package odm
