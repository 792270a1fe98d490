package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/query"
)

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "People", core.AutoIDNone)

	id, err := c.Insert(ctx, core.Document{"_id": "ada", "Name": "Ada", "Age": 36})
	require.NoError(t, err)
	assert.Equal(t, "ada", id)

	doc, err := c.FindByID(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Ada", doc["Name"])
	assert.Equal(t, json.Number("36"), doc["Age"])

	t.Run("Missing Document Is Nil", func(t *testing.T) {
		doc, err := c.FindByID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Duplicate Insert Fails", func(t *testing.T) {
		_, err := c.Insert(ctx, core.Document{"_id": "ada", "Name": "Other"})
		require.Error(t, err)
		assert.True(t, core.IsAlreadyExists(err), "got %v", err)

		var dup *core.AlreadyExistsError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "People", dup.Collection)
	})

	t.Run("Update Overwrites Existing Only", func(t *testing.T) {
		ok, err := c.Update(ctx, core.Document{"_id": "ada", "Name": "Ada Lovelace"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Update(ctx, core.Document{"_id": "ghost", "Name": "Ghost"})
		require.NoError(t, err)
		assert.False(t, ok)

		ghost, err := c.FindByID(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, ghost, "update must never insert")

		doc, err := c.FindByID(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", doc["Name"])
		assert.NotContains(t, doc, "Age", "update replaces the whole document")
	})

	t.Run("Upsert Reports Insertion", func(t *testing.T) {
		inserted, err := c.Upsert(ctx, core.Document{"_id": "bob", "Name": "Bob"})
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = c.Upsert(ctx, core.Document{"_id": "bob", "Name": "Robert"})
		require.NoError(t, err)
		assert.False(t, inserted)

		doc, err := c.FindByID(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "Robert", doc["Name"])
	})

	t.Run("Delete Reports Existence", func(t *testing.T) {
		ok, err := c.Delete(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Delete(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCollection_AutoID(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)

	t.Run("None Requires Identifier", func(t *testing.T) {
		c := openCollection(t, e, "Manual", core.AutoIDNone)
		_, err := c.Insert(ctx, core.Document{"Name": "x"})
		assert.True(t, errors.Is(err, core.ErrMissingID), "got %v", err)
	})

	t.Run("GUID", func(t *testing.T) {
		c := openCollection(t, e, "Guids", core.AutoIDGUID)
		doc := core.Document{"Name": "x"}
		id, err := c.Insert(ctx, doc)
		require.NoError(t, err)

		s, ok := id.(string)
		require.True(t, ok)
		_, err = uuid.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, id, doc["_id"], "identifier is written back into the document")

		found, err := c.FindByID(ctx, s)
		require.NoError(t, err)
		assert.NotNil(t, found)
	})

	t.Run("Int64 Increments From Maximum", func(t *testing.T) {
		c := openCollection(t, e, "Counters", core.AutoIDInt64)

		id, err := c.Insert(ctx, core.Document{"Name": "a"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		_, err = c.Insert(ctx, core.Document{"_id": 10, "Name": "b"})
		require.NoError(t, err)

		id, err = c.Insert(ctx, core.Document{"Name": "c"})
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)

		found, err := c.FindByID(ctx, 11)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "c", found["Name"])
	})

	t.Run("Upsert Without Identifier Inserts", func(t *testing.T) {
		c := openCollection(t, e, "UpsertGuids", core.AutoIDGUID)
		doc := core.Document{"Name": "x"}
		inserted, err := c.Upsert(ctx, doc)
		require.NoError(t, err)
		assert.True(t, inserted)
		assert.Contains(t, doc, "_id")
	})
}

func TestCollection_InsertManyIsAtomic(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "Batch", core.AutoIDNone)

	n, err := c.InsertMany(ctx, []core.Document{{"_id": 1}, {"_id": 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = c.InsertMany(ctx, []core.Document{{"_id": 3}, {"_id": 1}})
	require.Error(t, err)
	assert.True(t, core.IsAlreadyExists(err))

	count, err := c.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "failed batch must not leave partial writes")
}

func seedPeople(t *testing.T, c core.Collection) {
	t.Helper()
	people := []core.Document{
		{"_id": 1, "Name": "Ada", "Age": 36, "Active": true, "Tags": []any{"math", "poetry"}, "Address": map[string]any{"City": "London"}},
		{"_id": 2, "Name": "Grace", "Age": 85, "Active": false, "Tags": []any{"navy"}, "Address": map[string]any{"City": "New York"}},
		{"_id": 3, "Name": "Alan", "Age": 41, "Active": true, "Tags": []any{"math"}, "Address": map[string]any{"City": "London"}},
		{"_id": 4, "Name": "Barbara", "Age": 36, "Active": true},
	}
	_, err := c.InsertMany(context.Background(), people)
	require.NoError(t, err)
}

func TestCollection_Find(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "People", core.AutoIDNone)
	seedPeople(t, c)

	cases := []struct {
		name string
		pred query.Predicate
		want []string
	}{
		{"nil matches all", nil, []string{"Ada", "Grace", "Alan", "Barbara"}},
		{"eq", query.Eq("Name", "Grace"), []string{"Grace"}},
		{"ne includes missing", query.Ne("Address.City", "London"), []string{"Grace", "Barbara"}},
		{"gte", query.Gte("Age", 41), []string{"Grace", "Alan"}},
		{"lt", query.Lt("Age", 40), []string{"Ada", "Barbara"}},
		{"bool", query.Eq("Active", false), []string{"Grace"}},
		{"nested field", query.Eq("Address.City", "London"), []string{"Ada", "Alan"}},
		{"in", query.AnyOf("Name", "Ada", "Alan", "Nobody"), []string{"Ada", "Alan"}},
		{"like", query.Matches("Name", "A%"), []string{"Ada", "Alan"}},
		{"contains", query.Has("Tags", "math"), []string{"Ada", "Alan"}},
		{"null", query.Null("Address"), []string{"Barbara"}},
		{"eq nil", query.Eq("Tags", nil), []string{"Barbara"}},
		{"by id", query.ByID(3), []string{"Alan"}},
		{"id in", query.AnyOf("_id", 1, 4), []string{"Ada", "Barbara"}},
		{"and", query.All(query.Eq("Age", 36), query.Eq("Active", true)), []string{"Ada", "Barbara"}},
		{"or", query.Any(query.Eq("Name", "Ada"), query.Eq("Name", "Grace")), []string{"Ada", "Grace"}},
		{"not", query.Negate(query.Eq("Active", true)), []string{"Grace"}},
		{"empty and", query.All(), []string{"Ada", "Grace", "Alan", "Barbara"}},
		{"empty or", query.Any(), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := names(collect(t, c.Find(ctx, tc.pred)))
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)

			n, err := c.Count(ctx, tc.pred)
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.want), n)
		})
	}

	t.Run("Unsupported Value", func(t *testing.T) {
		var err error
		for _, e := range c.Find(ctx, query.Eq("Name", []string{"a"})) {
			err = e
		}
		assert.True(t, errors.Is(err, core.ErrUnsupportedPredicate), "got %v", err)
	})

	t.Run("Invalid Path", func(t *testing.T) {
		_, err := c.Count(ctx, query.Eq("Name'); DROP TABLE x; --", 1))
		assert.True(t, errors.Is(err, core.ErrInvalidPath), "got %v", err)
	})
}

func TestCollection_QueryPaging(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "People", core.AutoIDNone)
	seedPeople(t, c)

	q := c.Query().OrderBy("Age", core.Ascending).OrderBy("Name", core.Descending)
	assert.Equal(t, []string{"Barbara", "Ada", "Alan", "Grace"}, names(collect(t, q.Seq(ctx))))

	page := q.Skip(1).Limit(2)
	assert.Equal(t, []string{"Ada", "Alan"}, names(collect(t, page.Seq(ctx))))

	// Builder methods never mutate the receiver.
	assert.Len(t, collect(t, q.Seq(ctx)), 4)

	first, err := q.Where(query.Gt("Age", 40)).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alan", first["Name"])

	none, err := q.Where(query.Gt("Age", 100)).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	n, err := page.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n, "count ignores paging")

	assert.Empty(t, collect(t, q.Limit(0).Seq(ctx)))
}

func TestCollection_ReadsSpanBatches(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "Many", core.AutoIDInt64)

	docs := make([]core.Document, batchSize*2+7)
	for i := range docs {
		docs[i] = core.Document{"N": i}
	}
	_, err := c.InsertMany(ctx, docs)
	require.NoError(t, err)

	i := 0
	for doc, err := range c.FindAll(ctx) {
		require.NoError(t, err)
		assert.Equal(t, json.Number(jsonInt(i)), doc["N"])
		i++
	}
	assert.Equal(t, len(docs), i)

	got := collect(t, c.Query().Skip(batchSize-1).Limit(3).Seq(ctx))
	assert.Len(t, got, 3)
}

func TestCollection_WritesWhileIterating(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "People", core.AutoIDNone)
	seedPeople(t, c)

	for doc, err := range c.FindAll(ctx) {
		require.NoError(t, err)
		doc["Seen"] = true
		_, err = c.Update(ctx, doc)
		require.NoError(t, err)
	}

	n, err := c.Count(ctx, query.Eq("Seen", true))
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestCollection_DeleteMany(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "People", core.AutoIDNone)
	seedPeople(t, c)

	n, err := c.DeleteMany(ctx, query.Eq("Age", 36))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = c.DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCollection_Indexes(t *testing.T) {
	ctx := context.Background()
	c := openCollection(t, openTestEngine(t), "People", core.AutoIDNone)
	seedPeople(t, c)

	created, err := c.EnsureIndex(ctx, "Name", true)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = c.EnsureIndex(ctx, "Name", true)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = c.EnsureIndex(ctx, "Name", false)
	assert.Error(t, err, "conflicting uniqueness")

	_, err = c.Insert(ctx, core.Document{"_id": 9, "Name": "Ada"})
	assert.True(t, core.IsAlreadyExists(err), "unique index violation, got %v", err)

	created, err = c.EnsureIndex(ctx, "Address.City", false)
	require.NoError(t, err)
	assert.True(t, created)

	dropped, err := c.DropIndex(ctx, "Name")
	require.NoError(t, err)
	assert.True(t, dropped)

	dropped, err = c.DropIndex(ctx, "Name")
	require.NoError(t, err)
	assert.False(t, dropped)

	_, err = c.Insert(ctx, core.Document{"_id": 9, "Name": "Ada"})
	require.NoError(t, err)
}

func jsonInt(i int) string {
	data, _ := json.Marshal(i)
	return string(data)
}
