package odm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/odm"
	"github.com/aretw0/litedoc/pkg/typed"
)

type Author struct {
	ID   int
	Name string
}

type Book struct {
	ISBN    string `doc:"id"`
	Title   string
	Author  *Author
	Authors []Author
}

type Library struct {
	Books   *typed.Set[Book]
	Authors *typed.Set[Author]
}

func TestEntity_Registration(t *testing.T) {
	ctx := context.Background()
	calls := 0

	var lib Library
	c, err := odm.Open(&lib, dbPath(t), func(mb *odm.ModelBuilder) error {
		configure := odm.Configure(func(coll core.Collection) error {
			calls++
			assert.Equal(t, "Book", coll.Name())
			return nil
		})
		if err := odm.Entity[Book](mb, configure, odm.Index("Title", false)); err != nil {
			return err
		}
		// Registering twice is harmless and adds the reference.
		return odm.Entity[Book](mb, odm.WithReference("Author", ""), odm.Index("Title", false))
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 1, calls)
	refs := lib.Books.References()
	require.Len(t, refs, 1)
	assert.Equal(t, "Author", refs[0].Field)
	assert.Equal(t, "Author", refs[0].Collection)

	a := &Author{Name: "Le Guin"}
	_, err = lib.Authors.Insert(ctx, a)
	require.NoError(t, err)
	_, err = lib.Books.Insert(ctx, &Book{ISBN: "978-0441478125", Title: "The Left Hand of Darkness", Author: a})
	require.NoError(t, err)

	got, err := lib.Books.WithReferences().FindByID(ctx, "978-0441478125")
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, "Le Guin", got.Author.Name)

	plain, err := lib.Books.FindByID(ctx, "978-0441478125")
	require.NoError(t, err)
	assert.Equal(t, &Author{ID: a.ID}, plain.Author)
}

func TestEntity_Errors(t *testing.T) {
	var lib Library

	t.Run("Unknown Reference Field", func(t *testing.T) {
		_, err := odm.Open(&lib, dbPath(t), func(mb *odm.ModelBuilder) error {
			return odm.Entity[Book](mb, odm.WithReference("Publisher", ""))
		})
		assert.Error(t, err)
	})

	t.Run("Configure Callback Error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := odm.Open(&lib, dbPath(t), func(mb *odm.ModelBuilder) error {
			return odm.Entity[Author](mb, odm.Configure(func(core.Collection) error { return boom }))
		})
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("Invalid Index Path", func(t *testing.T) {
		_, err := odm.Open(&lib, dbPath(t), func(mb *odm.ModelBuilder) error {
			return odm.Entity[Author](mb, odm.Index("Name'", false))
		})
		assert.True(t, errors.Is(err, core.ErrInvalidPath), "got %v", err)
	})
}
