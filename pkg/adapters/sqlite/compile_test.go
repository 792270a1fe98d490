package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/query"
)

func TestFieldExpr(t *testing.T) {
	expr, err := fieldExpr("Address.City")
	require.NoError(t, err)
	assert.Equal(t, `json_extract(doc, '$."Address"."City"')`, expr)

	expr, err = fieldExpr("$.Name")
	require.NoError(t, err)
	assert.Equal(t, `json_extract(doc, '$."Name"')`, expr)

	for _, bad := range []string{"", "a'b", "a.", `a"b`} {
		_, err := fieldExpr(bad)
		assert.True(t, errors.Is(err, core.ErrInvalidPath), "field %q: %v", bad, err)
	}
}

func TestCompile(t *testing.T) {
	sql, args, err := compile(query.ByID("a"))
	require.NoError(t, err)
	assert.Equal(t, "id = ?", sql)
	assert.Equal(t, []any{`"a"`}, args)

	sql, args, err = compile(query.Ne("Name", "x"))
	require.NoError(t, err)
	assert.Equal(t, `json_extract(doc, '$."Name"') IS NOT ?`, sql)
	assert.Equal(t, []any{"x"}, args)

	sql, _, err = compile(query.All(query.Eq("A", 1), query.Any()))
	require.NoError(t, err)
	assert.Equal(t, `(json_extract(doc, '$."A"') = ?) AND (1 = 0)`, sql)

	_, _, err = compile(query.Compare{Field: "A", Op: "~", Value: 1})
	assert.True(t, errors.Is(err, core.ErrUnsupportedPredicate))
}

func TestSQLValue(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []struct {
		in   any
		want any
	}{
		{true, 1},
		{false, 0},
		{"s", "s"},
		{42, 42},
		{id, id.String()},
		{ts, "2024-01-02T03:04:05Z"},
		{nil, nil},
	}
	for _, tc := range cases {
		got, err := sqlValue(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := sqlValue(map[string]int{"a": 1})
	assert.True(t, errors.Is(err, core.ErrUnsupportedPredicate))
}
