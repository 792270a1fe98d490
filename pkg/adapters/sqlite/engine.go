package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aretw0/litedoc/pkg/core"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Catalog tables _collections and _indexes
const currentSchemaVersion = 1

const tablePrefix = "doc_"

var collectionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

// Config holds engine settings that are not part of the connection string.
type Config struct {
	Logger *slog.Logger
	// ReadOnly forces read-only mode regardless of the connection string.
	ReadOnly bool
}

// Engine implements core.Engine on a SQLite database.
type Engine struct {
	db     *sql.DB
	cs     ConnectionString
	logger *slog.Logger

	mu     sync.RWMutex
	known  map[string]core.AutoID
	closed bool
}

// OpenTarget parses a connection target and opens the engine.
func OpenTarget(ctx context.Context, target string, cfg Config) (*Engine, error) {
	cs, err := ParseConnectionString(target)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cs, cfg)
}

// Open creates or opens the database described by cs.
// The catalog schema is applied unless the engine is read-only.
func Open(ctx context.Context, cs ConnectionString, cfg Config) (*Engine, error) {
	if cfg.ReadOnly {
		cs.ReadOnly = true
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sql.Open("sqlite3", cs.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; reads never hold a cursor across calls,
	// so one connection is enough and avoids SQLITE_BUSY inside the process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	e := &Engine{
		db:     db,
		cs:     cs,
		logger: logger,
		known:  make(map[string]core.AutoID),
	}

	if !cs.ReadOnly {
		if err := e.applySchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := e.loadCatalog(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	logger.Debug("engine opened",
		"filename", cs.Filename,
		"mode", cs.Mode,
		"read_only", cs.ReadOnly,
		"collections", len(e.known))

	return e, nil
}

// dsn renders the go-sqlite3 data source name for the connection string.
func (cs ConnectionString) dsn() string {
	params := url.Values{}
	params.Set("_busy_timeout", strconv.FormatInt(cs.Timeout.Milliseconds(), 10))
	// Transactions take the write lock at BEGIN; every transaction here writes.
	params.Set("_txlock", "immediate")

	if cs.InMemory() {
		// A unique name plus a shared cache keeps the store alive across
		// pooled connections while staying private to this engine.
		params.Set("mode", "memory")
		params.Set("cache", "shared")
		return "file:litedoc-" + uuid.NewString() + "?" + params.Encode()
	}

	if cs.Mode == ModeShared {
		params.Set("_journal_mode", "WAL")
		params.Set("_synchronous", "NORMAL")
	}
	if cs.ReadOnly {
		params.Set("mode", "ro")
	}

	path := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(cs.Filename)
	return "file:" + path + "?" + params.Encode()
}

// applySchema creates the catalog tables and records the schema version.
// It is idempotent.
func (e *Engine) applySchema(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := e.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := e.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

func (e *Engine) loadCatalog(ctx context.Context) error {
	rows, err := e.db.QueryContext(ctx, "SELECT name, auto_id FROM _collections")
	if err != nil {
		if e.cs.ReadOnly && isNoSuchTable(err) {
			// Read-only over a file that was never initialized: nothing to load.
			return nil
		}
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name, auto string
		if err := rows.Scan(&name, &auto); err != nil {
			return err
		}
		autoID, err := core.ParseAutoID(auto)
		if err != nil {
			return fmt.Errorf("collection %s: %w", name, err)
		}
		e.known[name] = autoID
	}
	return rows.Err()
}

// Collection returns the named collection, creating its table on first use.
func (e *Engine) Collection(ctx context.Context, name string, autoID core.AutoID) (core.Collection, error) {
	if !collectionNameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCollectionName, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, core.ErrClosed
	}

	// An existing collection keeps the strategy it was created with.
	if stored, ok := e.known[name]; ok {
		autoID = stored
	} else if !e.cs.ReadOnly {
		if err := e.createCollection(ctx, name, autoID); err != nil {
			return nil, err
		}
		e.known[name] = autoID
		e.logger.Debug("collection created", "collection", name, "auto_id", autoID.String())
	}

	return &collection{
		engine: e,
		name:   name,
		table:  quoteIdent(tablePrefix + name),
		autoID: autoID,
	}, nil
}

func (e *Engine) createCollection(ctx context.Context, name string, autoID core.AutoID) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		doc TEXT NOT NULL
	)`, quoteIdent(tablePrefix+name))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO _collections (name, auto_id) VALUES (?, ?)",
		name, autoID.String()); err != nil {
		return fmt.Errorf("register collection %s: %w", name, err)
	}
	return tx.Commit()
}

// exists reports whether a collection is present, consulting the catalog
// for collections created by other engines sharing the same file.
func (e *Engine) exists(ctx context.Context, name string) (bool, error) {
	e.mu.RLock()
	closed := e.closed
	_, ok := e.known[name]
	e.mu.RUnlock()

	if closed {
		return false, core.ErrClosed
	}
	if ok {
		return true, nil
	}

	var auto string
	err := e.db.QueryRowContext(ctx, "SELECT auto_id FROM _collections WHERE name = ?", name).Scan(&auto)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		if isNoSuchTable(err) {
			return false, nil
		}
		return false, err
	}

	autoID, _ := core.ParseAutoID(auto)
	e.mu.Lock()
	e.known[name] = autoID
	e.mu.Unlock()
	return true, nil
}

// CollectionNames lists every collection, sorted by name.
func (e *Engine) CollectionNames(ctx context.Context) ([]string, error) {
	if e.isClosed() {
		return nil, core.ErrClosed
	}

	rows, err := e.db.QueryContext(ctx, "SELECT name FROM _collections ORDER BY name")
	if err != nil {
		if isNoSuchTable(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DropCollection removes a collection, its indexes and its documents.
func (e *Engine) DropCollection(ctx context.Context, name string) (bool, error) {
	if err := e.writable(); err != nil {
		return false, err
	}
	ok, err := e.exists(ctx, name)
	if err != nil || !ok {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	stmts := []struct {
		query string
		args  []any
	}{
		{fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tablePrefix+name)), nil},
		{"DELETE FROM _indexes WHERE collection = ?", []any{name}},
		{"DELETE FROM _collections WHERE name = ?", []any{name}},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.query, s.args...); err != nil {
			return false, fmt.Errorf("drop collection %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	delete(e.known, name)
	e.logger.Debug("collection dropped", "collection", name)
	return true, nil
}

// Close releases the database. Calling Close more than once is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.logger.Debug("engine closed", "filename", e.cs.Filename)
	return e.db.Close()
}

// ConnectionString returns the parsed target the engine was opened with.
func (e *Engine) ConnectionString() ConnectionString {
	return e.cs
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

func (e *Engine) writable() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return core.ErrClosed
	}
	if e.cs.ReadOnly {
		return core.ErrReadOnly
	}
	return nil
}

// State implements introspection.Introspectable.
func (e *Engine) State() any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.known))
	for name := range e.known {
		names = append(names, name)
	}
	slices.Sort(names)

	return core.EngineState{
		Adapter:     "sqlite",
		Filename:    e.cs.Filename,
		Mode:        e.cs.Mode,
		ReadOnly:    e.cs.ReadOnly,
		Closed:      e.closed,
		Collections: names,
	}
}

// ComponentType implements introspection.Component.
func (e *Engine) ComponentType() string {
	return "engine"
}

var _ core.Engine = (*Engine)(nil)
var _ introspection.Introspectable = (*Engine)(nil)
var _ introspection.Component = (*Engine)(nil)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
