package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/pkg/query"
)

func TestParseWhere(t *testing.T) {
	t.Run("Operators", func(t *testing.T) {
		tests := []struct {
			expr string
			want query.Predicate
		}{
			{"Name=Parent A", query.Eq("Name", "Parent A")},
			{"Age>=30", query.Gte("Age", float64(30))},
			{"Age<=30", query.Lte("Age", float64(30))},
			{"Age>1", query.Gt("Age", float64(1))},
			{"Age<1", query.Lt("Age", float64(1))},
			{"Active!=true", query.Ne("Active", true)},
			{"Name~=Par%", query.Matches("Name", "Par%")},
			{"Parent=null", query.Eq("Parent", nil)},
			{`_id="42"`, query.Eq("_id", "42")},
		}
		for _, tt := range tests {
			got, err := parseWhere([]string{tt.expr})
			require.NoError(t, err, tt.expr)
			assert.Equal(t, tt.want, got, tt.expr)
		}
	})

	t.Run("Several expressions are combined with AND", func(t *testing.T) {
		got, err := parseWhere([]string{"A=1", "B=x"})
		require.NoError(t, err)
		assert.Equal(t, query.All(query.Eq("A", float64(1)), query.Eq("B", "x")), got)
	})

	t.Run("No expressions match everything", func(t *testing.T) {
		got, err := parseWhere(nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Invalid expressions", func(t *testing.T) {
		_, err := parseWhere([]string{"Name"})
		assert.Error(t, err)
		_, err = parseWhere([]string{"=x"})
		assert.Error(t, err)
	})
}

func TestParseDocuments(t *testing.T) {
	docs, err := parseDocuments([]byte(`[{"Name": "a"}, {"_id": 2}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0]["Name"])

	docs, err = parseDocuments([]byte(` {"Name": "b"} `))
	require.NoError(t, err)
	require.Len(t, docs, 1)

	_, err = parseDocuments([]byte("  "))
	assert.Error(t, err)
	_, err = parseDocuments([]byte("{"))
	assert.Error(t, err)
}
