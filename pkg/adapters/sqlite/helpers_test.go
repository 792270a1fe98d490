package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/pkg/core"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := OpenTarget(context.Background(), filepath.Join(t.TempDir(), "test.db"), Config{})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func openCollection(t *testing.T, e *Engine, name string, autoID core.AutoID) core.Collection {
	t.Helper()
	c, err := e.Collection(context.Background(), name, autoID)
	require.NoError(t, err)
	return c
}

func collect(t *testing.T, seq func(func(core.Document, error) bool)) []core.Document {
	t.Helper()
	var out []core.Document
	for doc, err := range seq {
		require.NoError(t, err)
		out = append(out, doc)
	}
	return out
}

func names(docs []core.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		s, _ := d["Name"].(string)
		out = append(out, s)
	}
	return out
}
