package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/pkg/core"
)

func TestParseIncludePath(t *testing.T) {
	cases := map[string][]string{
		"$.Parent":       {"Parent"},
		"$.Rooms[*]":     {"Rooms"},
		"$.Parent.Owner": {"Parent", "Owner"},
		"Parent":         {"Parent"},
	}
	for path, want := range cases {
		got, err := parseIncludePath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	for _, path := range []string{"", "$", "$.", "$.a..b", "$.a b"} {
		_, err := parseIncludePath(path)
		assert.True(t, errors.Is(err, core.ErrInvalidPath), "path %q: %v", path, err)
	}
}

func seedHouses(t *testing.T, e *Engine) (houses, rooms, owners core.Collection) {
	t.Helper()
	ctx := context.Background()

	owners = openCollection(t, e, "Owners", core.AutoIDNone)
	houses = openCollection(t, e, "Houses", core.AutoIDNone)
	rooms = openCollection(t, e, "Rooms", core.AutoIDNone)

	_, err := owners.Insert(ctx, core.Document{"_id": "o1", "Name": "Olga"})
	require.NoError(t, err)
	_, err = houses.Insert(ctx, core.Document{"_id": "h1", "Name": "Villa", "Owner": core.NewRef("o1", "Owners")})
	require.NoError(t, err)
	_, err = rooms.InsertMany(ctx, []core.Document{
		{"_id": "r1", "Name": "Kitchen", "Parent": core.NewRef("h1", "Houses")},
		{"_id": "r2", "Name": "Attic", "Parent": core.NewRef("h1", "Houses")},
		{"_id": "r3", "Name": "Shed", "Parent": core.NewRef("gone", "Houses")},
	})
	require.NoError(t, err)

	_, err = houses.Upsert(ctx, core.Document{
		"_id":   "h1",
		"Name":  "Villa",
		"Owner": core.NewRef("o1", "Owners"),
		"Rooms": []any{core.NewRef("r2", "Rooms"), core.NewRef("r1", "Rooms"), core.NewRef("missing", "Rooms")},
	})
	require.NoError(t, err)
	return houses, rooms, owners
}

func TestInclude_SingleReference(t *testing.T) {
	ctx := context.Background()
	_, rooms, _ := seedHouses(t, openTestEngine(t))

	t.Run("Without Include Keeps Stub", func(t *testing.T) {
		doc, err := rooms.FindByID(ctx, "r1")
		require.NoError(t, err)
		id, coll, ok := core.AsRef(doc["Parent"])
		require.True(t, ok)
		assert.Equal(t, "h1", id)
		assert.Equal(t, "Houses", coll)
	})

	t.Run("Include Resolves Parent", func(t *testing.T) {
		doc, err := rooms.Include("$.Parent").FindByID(ctx, "r1")
		require.NoError(t, err)
		parent, ok := doc["Parent"].(map[string]any)
		require.True(t, ok, "parent should be a document, got %T", doc["Parent"])
		assert.Equal(t, "Villa", parent["Name"])
	})

	t.Run("Missing Target Resolves To Nil", func(t *testing.T) {
		doc, err := rooms.Include("$.Parent").FindByID(ctx, "r3")
		require.NoError(t, err)
		assert.Contains(t, doc, "Parent")
		assert.Nil(t, doc["Parent"])
	})

	t.Run("Include Does Not Alter Base Handle", func(t *testing.T) {
		_ = rooms.Include("$.Parent")
		doc, err := rooms.FindByID(ctx, "r1")
		require.NoError(t, err)
		_, _, ok := core.AsRef(doc["Parent"])
		assert.True(t, ok)
	})

	t.Run("Resolved Documents Are Independent", func(t *testing.T) {
		docs := collect(t, rooms.Include("$.Parent").Query().Where(nil).Seq(ctx))
		require.Len(t, docs, 3)
		a := docs[0]["Parent"].(map[string]any)
		b := docs[1]["Parent"].(map[string]any)
		a["Name"] = "changed"
		assert.Equal(t, "Villa", b["Name"])
	})
}

func TestInclude_ListReferenceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	houses, _, _ := seedHouses(t, openTestEngine(t))

	doc, err := houses.Include("$.Rooms[*]").FindByID(ctx, "h1")
	require.NoError(t, err)

	list, ok := doc["Rooms"].([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, "Attic", list[0].(map[string]any)["Name"])
	assert.Equal(t, "Kitchen", list[1].(map[string]any)["Name"])
	assert.Nil(t, list[2])
}

func TestInclude_NestedAppliesInOrder(t *testing.T) {
	ctx := context.Background()
	_, rooms, _ := seedHouses(t, openTestEngine(t))

	doc, err := rooms.Query().
		Include("$.Parent").
		Include("$.Parent.Owner").
		Where(nil).
		First(ctx)
	require.NoError(t, err)

	parent := doc["Parent"].(map[string]any)
	owner, ok := parent["Owner"].(map[string]any)
	require.True(t, ok, "owner should be resolved, got %T", parent["Owner"])
	assert.Equal(t, "Olga", owner["Name"])

	t.Run("Reverse Order Leaves Nested Stub", func(t *testing.T) {
		doc, err := rooms.Include("$.Parent.Owner").Include("$.Parent").FindByID(ctx, "r1")
		require.NoError(t, err)
		parent := doc["Parent"].(map[string]any)
		_, _, ok := core.AsRef(parent["Owner"])
		assert.True(t, ok)
	})
}
