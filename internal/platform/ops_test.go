package platform_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/litedoc/internal/platform"
	"github.com/aretw0/litedoc/pkg/adapters/sqlite"
	"github.com/aretw0/litedoc/pkg/core"
)

func TestInit(t *testing.T) {
	t.Run("Creates Missing Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "app.db")

		engine, err := platform.Init(path)
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
		defer engine.Close()

		if _, err := os.Stat(path); err != nil {
			t.Errorf("database file not created: %v", err)
		}

		sq, ok := engine.(*sqlite.Engine)
		if !ok {
			t.Fatalf("expected *sqlite.Engine, got %T", engine)
		}
		if sq.ConnectionString().Filename != path {
			t.Errorf("expected filename %s, got %s", path, sq.ConnectionString().Filename)
		}
	})

	t.Run("MustExist Fails If File Missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")
		_, err := platform.Init(path, platform.WithMustExist(true))
		if err == nil {
			t.Error("expected failure for missing database")
		}
	})

	t.Run("ReadOnly Rejects Writes", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "ro.db")

		engine, err := platform.Init(path)
		require.NoError(t, err)
		_, err = engine.Collection(ctx, "People", core.AutoIDNone)
		require.NoError(t, err)
		require.NoError(t, engine.Close())

		engine, err = platform.Init(path, platform.WithReadOnly(true))
		require.NoError(t, err)
		defer engine.Close()

		coll, err := engine.Collection(ctx, "People", core.AutoIDNone)
		require.NoError(t, err)
		_, err = coll.Insert(ctx, core.Document{"_id": 1})
		assert.True(t, errors.Is(err, core.ErrReadOnly), "got %v", err)
	})

	t.Run("Memory Adapter Ignores Target", func(t *testing.T) {
		engine, err := platform.Init("", platform.WithAdapter(platform.AdapterMemory))
		require.NoError(t, err)
		defer engine.Close()

		sq := engine.(*sqlite.Engine)
		assert.True(t, sq.ConnectionString().InMemory())
	})

	t.Run("Timeout Option", func(t *testing.T) {
		engine, err := platform.Init(":memory:", platform.WithTimeout(2*time.Second))
		require.NoError(t, err)
		defer engine.Close()
		assert.Equal(t, 2*time.Second, engine.(*sqlite.Engine).ConnectionString().Timeout)
	})

	t.Run("Injected Engine Wins", func(t *testing.T) {
		injected, err := platform.Init(":memory:")
		require.NoError(t, err)
		defer injected.Close()

		got, err := platform.Init("ignored", platform.WithEngine(injected))
		require.NoError(t, err)
		assert.Same(t, injected, got)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := platform.Init("x.db", platform.WithAdapter("bolt"))
		assert.Error(t, err)
	})

	t.Run("Invalid Connection String", func(t *testing.T) {
		_, err := platform.Init("Filename=x.db;Connection=pooled")
		assert.True(t, errors.Is(err, core.ErrInvalidConnectionString))
	})
}

func TestResolve(t *testing.T) {
	s := platform.Resolve()
	require.NotNil(t, s.Logger)
	assert.Equal(t, "Thing", s.Naming(reflect.TypeOf(&Thing{})))

	s = platform.Resolve(platform.WithNaming(func(t reflect.Type) string { return "x_" + t.Name() }))
	assert.Equal(t, "x_Thing", s.Naming(reflect.TypeOf(Thing{})))
}

type Thing struct{}
