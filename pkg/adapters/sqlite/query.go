package sqlite

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/query"
)

// batchSize bounds how many rows are read per round trip.
const batchSize = 256

type orderClause struct {
	field string
	order core.Order
}

// plan implements core.Query. Builder methods copy the plan.
type plan struct {
	coll     *collection
	preds    []query.Predicate
	includes []string
	orders   []orderClause
	skip     int
	limit    int
}

func (p *plan) clone() *plan {
	c := *p
	c.preds = append([]query.Predicate(nil), p.preds...)
	c.includes = append([]string(nil), p.includes...)
	c.orders = append([]orderClause(nil), p.orders...)
	return &c
}

func (p *plan) Where(pred query.Predicate) core.Query {
	c := p.clone()
	if pred != nil {
		c.preds = append(c.preds, pred)
	}
	return c
}

func (p *plan) Include(path string) core.Query {
	c := p.clone()
	c.includes = append(c.includes, path)
	return c
}

func (p *plan) OrderBy(field string, order core.Order) core.Query {
	c := p.clone()
	c.orders = append(c.orders, orderClause{field: field, order: order})
	return c
}

func (p *plan) Skip(n int) core.Query {
	c := p.clone()
	c.skip = max(n, 0)
	return c
}

// Limit caps the number of results. A negative limit removes the cap.
func (p *plan) Limit(n int) core.Query {
	c := p.clone()
	c.limit = n
	return c
}

// selectSQL renders the SELECT without paging.
func (p *plan) selectSQL() (string, []any, error) {
	where, args, err := compileWhere(p.preds)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT doc FROM %s WHERE %s ORDER BY ", p.coll.table, where)
	for _, o := range p.orders {
		expr, err := fieldExpr(o.field)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if o.order == core.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, "%s %s, ", expr, dir)
	}
	b.WriteString("rowid ASC")
	return b.String(), args, nil
}

// Seq runs the plan in batches of batchSize. Each batch is fully read and
// its cursor closed before any document is yielded.
func (p *plan) Seq(ctx context.Context) iter.Seq2[core.Document, error] {
	return func(yield func(core.Document, error) bool) {
		ok, err := p.coll.engine.exists(ctx, p.coll.name)
		if err != nil {
			yield(nil, err)
			return
		}
		if !ok {
			return
		}

		stmt, args, err := p.selectSQL()
		if err != nil {
			yield(nil, err)
			return
		}

		res := newResolver(p.coll.engine)
		offset := p.skip
		remaining := p.limit

		for remaining != 0 {
			n := batchSize
			if remaining > 0 && remaining < n {
				n = remaining
			}

			docs, err := p.fetch(ctx, stmt, args, n, offset)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, doc := range docs {
				if err := res.apply(ctx, doc, p.includes); err != nil {
					yield(nil, err)
					return
				}
				if !yield(doc, nil) {
					return
				}
			}

			if len(docs) < n {
				return
			}
			offset += len(docs)
			if remaining > 0 {
				remaining -= len(docs)
			}
		}
	}
}

func (p *plan) fetch(ctx context.Context, stmt string, args []any, limit, offset int) ([]core.Document, error) {
	paged := stmt + " LIMIT ? OFFSET ?"
	rows, err := p.coll.engine.db.QueryContext(ctx, paged, append(append([]any(nil), args...), limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", p.coll.name, err)
	}
	defer rows.Close()

	docs := make([]core.Document, 0, limit)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		doc, err := decodeDoc(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// First returns the first document of the plan, or nil.
func (p *plan) First(ctx context.Context) (core.Document, error) {
	for doc, err := range p.Limit(1).Seq(ctx) {
		return doc, err
	}
	return nil, nil
}

func (p *plan) Count(ctx context.Context) (int64, error) {
	ok, err := p.coll.engine.exists(ctx, p.coll.name)
	if err != nil || !ok {
		return 0, err
	}

	where, args, err := compileWhere(p.preds)
	if err != nil {
		return 0, err
	}

	var n int64
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", p.coll.table, where)
	if err := p.coll.engine.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", p.coll.name, err)
	}
	return n, nil
}

var _ core.Query = (*plan)(nil)
