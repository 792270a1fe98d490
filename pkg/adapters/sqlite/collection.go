package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/query"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// collection implements core.Collection for one table.
type collection struct {
	engine   *Engine
	name     string
	table    string
	autoID   core.AutoID
	includes []string
}

func (c *collection) Name() string {
	return c.name
}

// Insert stores doc, generating its identifier when missing.
func (c *collection) Insert(ctx context.Context, doc core.Document) (any, error) {
	if err := c.engine.writable(); err != nil {
		return nil, err
	}

	// The write lock is taken at BEGIN, so the identifier generated from
	// MAX(id) cannot be claimed by another connection first.
	tx, err := c.engine.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	id, err := c.insert(ctx, tx, doc)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return id, nil
}

func (c *collection) insert(ctx context.Context, db execer, doc core.Document) (any, error) {
	id, err := c.assignID(ctx, db, doc)
	if err != nil {
		return nil, err
	}
	key, err := idKey(id)
	if err != nil {
		return nil, err
	}
	data, err := encodeDoc(doc)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (?, ?)", c.table)
	if _, err := db.ExecContext(ctx, q, key, data); err != nil {
		return nil, c.mapError(err, key)
	}
	return id, nil
}

// assignID returns the document identifier, generating and storing one
// according to the collection AutoID when it is missing.
func (c *collection) assignID(ctx context.Context, db execer, doc core.Document) (any, error) {
	if id, ok := doc.ID(); ok {
		return id, nil
	}

	var id any
	switch c.autoID {
	case core.AutoIDGUID:
		id = uuid.NewString()
	case core.AutoIDInt64:
		var max int64
		q := fmt.Sprintf("SELECT COALESCE(MAX(CAST(id AS INTEGER)), 0) FROM %s", c.table)
		if err := db.QueryRowContext(ctx, q).Scan(&max); err != nil {
			return nil, fmt.Errorf("%s: next identifier: %w", c.name, err)
		}
		id = max + 1
	default:
		return nil, fmt.Errorf("%s: %w", c.name, core.ErrMissingID)
	}

	doc[core.IDKey] = id
	return id, nil
}

// InsertMany inserts every document inside one transaction.
// On failure nothing is stored.
func (c *collection) InsertMany(ctx context.Context, docs []core.Document) (int, error) {
	if err := c.engine.writable(); err != nil {
		return 0, err
	}

	tx, err := c.engine.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for i, doc := range docs {
		if _, err := c.insert(ctx, tx, doc); err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Update overwrites an existing document. It never inserts.
func (c *collection) Update(ctx context.Context, doc core.Document) (bool, error) {
	if err := c.engine.writable(); err != nil {
		return false, err
	}
	return c.update(ctx, c.engine.db, doc)
}

// A document without an identifier cannot match a stored one.
func (c *collection) update(ctx context.Context, db execer, doc core.Document) (bool, error) {
	if _, ok := doc.ID(); !ok {
		return false, nil
	}
	key, err := docKey(doc)
	if err != nil {
		return false, fmt.Errorf("%s: %w", c.name, err)
	}
	data, err := encodeDoc(doc)
	if err != nil {
		return false, err
	}

	q := fmt.Sprintf("UPDATE %s SET doc = ? WHERE id = ?", c.table)
	res, err := db.ExecContext(ctx, q, data, key)
	if err != nil {
		return false, c.mapError(err, key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert reports true when the document was inserted and false when an
// existing document was overwritten.
func (c *collection) Upsert(ctx context.Context, doc core.Document) (bool, error) {
	if err := c.engine.writable(); err != nil {
		return false, err
	}

	tx, err := c.engine.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	inserted, err := c.upsert(ctx, tx, doc)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return inserted, nil
}

func (c *collection) upsert(ctx context.Context, tx execer, doc core.Document) (bool, error) {
	if _, ok := doc.ID(); !ok {
		if _, err := c.insert(ctx, tx, doc); err != nil {
			return false, err
		}
		return true, nil
	}

	key, err := docKey(doc)
	if err != nil {
		return false, err
	}
	data, err := encodeDoc(doc)
	if err != nil {
		return false, err
	}

	q := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES (?, ?) ON CONFLICT(id) DO NOTHING", c.table)
	res, err := tx.ExecContext(ctx, q, key, data)
	if err != nil {
		return false, c.mapError(err, key)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return true, nil
	}

	if _, err := c.update(ctx, tx, doc); err != nil {
		return false, err
	}
	return false, nil
}

// Delete removes a document by identifier.
func (c *collection) Delete(ctx context.Context, id any) (bool, error) {
	if err := c.engine.writable(); err != nil {
		return false, err
	}
	key, err := idKey(id)
	if err != nil {
		return false, err
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.table)
	res, err := c.engine.db.ExecContext(ctx, q, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteMany removes every document matching pred. A nil predicate removes all.
func (c *collection) DeleteMany(ctx context.Context, pred query.Predicate) (int64, error) {
	if err := c.engine.writable(); err != nil {
		return 0, err
	}
	where, args, err := compileWhere(wherePreds(pred))
	if err != nil {
		return 0, err
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE %s", c.table, where)
	res, err := c.engine.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FindByID returns the document with the given identifier, or nil.
func (c *collection) FindByID(ctx context.Context, id any) (core.Document, error) {
	key, err := idKey(id)
	if err != nil {
		return nil, err
	}
	doc, err := c.engine.findRaw(ctx, c.name, key)
	if err != nil || doc == nil {
		return nil, err
	}
	if err := newResolver(c.engine).apply(ctx, doc, c.includes); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *collection) FindAll(ctx context.Context) iter.Seq2[core.Document, error] {
	return c.Query().Seq(ctx)
}

func (c *collection) Find(ctx context.Context, pred query.Predicate) iter.Seq2[core.Document, error] {
	return c.Query().Where(pred).Seq(ctx)
}

func (c *collection) Count(ctx context.Context, pred query.Predicate) (int64, error) {
	return c.Query().Where(pred).Count(ctx)
}

func (c *collection) Query() core.Query {
	return &plan{
		coll:     c,
		includes: append([]string(nil), c.includes...),
		limit:    -1,
	}
}

// Include returns a copy of the handle with path appended to its includes.
func (c *collection) Include(path string) core.Collection {
	clone := *c
	clone.includes = append(append([]string(nil), c.includes...), path)
	return &clone
}

// EnsureIndex creates an expression index on json_extract(doc, field).
func (c *collection) EnsureIndex(ctx context.Context, field string, unique bool) (bool, error) {
	if err := c.engine.writable(); err != nil {
		return false, err
	}
	if field == core.IDKey {
		// The primary key already indexes the identity.
		return false, nil
	}
	expr, err := fieldExpr(field)
	if err != nil {
		return false, err
	}

	var existing int
	err = c.engine.db.QueryRowContext(ctx,
		"SELECT is_unique FROM _indexes WHERE collection = ? AND field = ?",
		c.name, field).Scan(&existing)
	switch {
	case err == nil:
		if (existing == 1) != unique {
			return false, fmt.Errorf("%s: index on %s already exists with unique=%t", c.name, field, existing == 1)
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, err
	}

	tx, err := c.engine.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	ddl := fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)", kind, c.indexName(field), c.table, expr)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return false, c.mapError(err, field)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO _indexes (collection, field, is_unique) VALUES (?, ?, ?)",
		c.name, field, unique); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	c.engine.logger.Debug("index created", "collection", c.name, "field", field, "unique", unique)
	return true, nil
}

// DropIndex removes the index on field.
func (c *collection) DropIndex(ctx context.Context, field string) (bool, error) {
	if err := c.engine.writable(); err != nil {
		return false, err
	}

	res, err := c.engine.db.ExecContext(ctx,
		"DELETE FROM _indexes WHERE collection = ? AND field = ?", c.name, field)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}

	if _, err := c.engine.db.ExecContext(ctx, "DROP INDEX IF EXISTS "+c.indexName(field)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *collection) indexName(field string) string {
	return quoteIdent("ix_" + c.name + "_" + strings.ReplaceAll(field, ".", "_"))
}

// mapError converts driver errors into core errors. Everything else is
// returned unchanged.
func (c *collection) mapError(err error, key string) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case sqlite3.ErrConstraint:
		return &core.AlreadyExistsError{Collection: c.name, Key: key}
	case sqlite3.ErrReadonly:
		return fmt.Errorf("%w: %v", core.ErrReadOnly, err)
	}
	return err
}

// findRaw loads a document by canonical key without resolving includes.
// A missing collection or document yields nil.
func (e *Engine) findRaw(ctx context.Context, name, key string) (core.Document, error) {
	ok, err := e.exists(ctx, name)
	if err != nil || !ok {
		return nil, err
	}

	var data []byte
	q := fmt.Sprintf("SELECT doc FROM %s WHERE id = ?", quoteIdent(tablePrefix+name))
	err = e.db.QueryRowContext(ctx, q, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeDoc(data)
}

func wherePreds(pred query.Predicate) []query.Predicate {
	if pred == nil {
		return nil
	}
	return []query.Predicate{pred}
}
