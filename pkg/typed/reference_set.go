package typed

import (
	"context"
	"iter"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
	"github.com/aretw0/litedoc/pkg/query"
)

// ReferenceSet reads entities with their reference fields resolved to the
// referenced documents. A referenced document that no longer exists
// decodes as a nil pointer, or a zero element in a list.
//
// It has no write methods: included documents are never written back.
type ReferenceSet[T any] struct {
	coll    core.Collection
	mapping *mapper.Mapping
}

func (r *ReferenceSet[T]) FindByID(ctx context.Context, id any) (*T, error) {
	doc, err := r.coll.FindByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return decode[T](r.mapping, doc)
}

func (r *ReferenceSet[T]) FindAll(ctx context.Context) iter.Seq2[*T, error] {
	return decodeSeq[T](r.mapping, r.coll.FindAll(ctx))
}

func (r *ReferenceSet[T]) Find(ctx context.Context, pred query.Predicate) iter.Seq2[*T, error] {
	return decodeSeq[T](r.mapping, r.coll.Find(ctx, documentPredicate(r.mapping, pred)))
}

func (r *ReferenceSet[T]) FindOne(ctx context.Context, pred query.Predicate) (*T, error) {
	return r.Query().Where(pred).First(ctx)
}

// Query starts a typed query that carries the view's includes.
func (r *ReferenceSet[T]) Query() *Query[T] {
	return &Query[T]{q: r.coll.Query(), mapping: r.mapping}
}
