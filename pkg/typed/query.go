package typed

import (
	"context"
	"iter"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
	"github.com/aretw0/litedoc/pkg/query"
)

// Query is a typed, immutable view of core.Query. Filtering, ordering and
// paging run in the engine.
type Query[T any] struct {
	q       core.Query
	mapping *mapper.Mapping
}

func (q *Query[T]) with(next core.Query) *Query[T] {
	return &Query[T]{q: next, mapping: q.mapping}
}

// Where narrows the query. Field names follow the same rules as Set.Find.
func (q *Query[T]) Where(pred query.Predicate) *Query[T] {
	return q.with(q.q.Where(documentPredicate(q.mapping, pred)))
}

// Include resolves the reference stored at path ("$.Parent").
func (q *Query[T]) Include(path string) *Query[T] {
	return q.with(q.q.Include(path))
}

// OrderBy sorts ascending by a document field, named as in Where.
func (q *Query[T]) OrderBy(field string) *Query[T] {
	return q.with(q.q.OrderBy(q.field(field), core.Ascending))
}

func (q *Query[T]) OrderByDescending(field string) *Query[T] {
	return q.with(q.q.OrderBy(q.field(field), core.Descending))
}

func (q *Query[T]) Skip(n int) *Query[T] {
	return q.with(q.q.Skip(n))
}

func (q *Query[T]) Limit(n int) *Query[T] {
	return q.with(q.q.Limit(n))
}

// ToSeq runs the query lazily.
func (q *Query[T]) ToSeq(ctx context.Context) iter.Seq2[*T, error] {
	return decodeSeq[T](q.mapping, q.q.Seq(ctx))
}

// ToList runs the query and collects every result.
func (q *Query[T]) ToList(ctx context.Context) ([]*T, error) {
	var out []*T
	for entity, err := range q.ToSeq(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// First returns the first result, or nil.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	doc, err := q.q.First(ctx)
	if err != nil || doc == nil {
		return nil, err
	}
	return decode[T](q.mapping, doc)
}

func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	return q.q.Count(ctx)
}

func (q *Query[T]) Exists(ctx context.Context) (bool, error) {
	doc, err := q.q.First(ctx)
	return doc != nil, err
}

func (q *Query[T]) field(name string) string {
	return documentField(q.mapping, name)
}
