package typed

import (
	"context"
	"fmt"
	"iter"
	"reflect"

	"github.com/aretw0/litedoc/pkg/core"
	"github.com/aretw0/litedoc/pkg/mapper"
	"github.com/aretw0/litedoc/pkg/query"
)

// Set is a typed accessor over the collection holding entities of type T.
// The zero value is unbound; obtain one with NewSet or by declaring a
// *Set[T] field on a model passed to odm.Open.
type Set[T any] struct {
	coll    core.Collection
	mapping *mapper.Mapping
}

// Binder is implemented by *Set[T]. It lets a composition root populate
// declared sets without knowing T at compile time.
type Binder interface {
	Bind(ctx context.Context, engine core.Engine, opts ...SetOption) error
	EntityType() reflect.Type
}

// NewSet binds a Set for T to engine, creating the collection if needed.
func NewSet[T any](ctx context.Context, engine core.Engine, opts ...SetOption) (*Set[T], error) {
	s := &Set[T]{}
	if err := s.Bind(ctx, engine, opts...); err != nil {
		return nil, err
	}
	return s, nil
}

// Bind resolves T's descriptor and opens its collection. Reference fields
// are computed here, once, in declaration order followed by references
// declared with WithReference.
func (s *Set[T]) Bind(ctx context.Context, engine core.Engine, opts ...SetOption) error {
	if engine == nil {
		return fmt.Errorf("bind %s: nil engine", s.EntityType())
	}
	o := buildOptions(opts)

	desc, err := mapper.DescribeOf[T]()
	if err != nil {
		return err
	}
	refs, err := mergeReferences(desc, o.refs)
	if err != nil {
		return err
	}

	name := o.name
	if name == "" {
		name = o.naming(desc.Type)
	}

	coll, err := engine.Collection(ctx, name, desc.Identity.AutoID())
	if err != nil {
		return fmt.Errorf("bind %s: %w", desc.Type, err)
	}

	s.coll = coll
	s.mapping = mapper.NewMapping(desc, name, refs, o.naming)
	return nil
}

func mergeReferences(desc *mapper.Descriptor, decls []refDecl) ([]mapper.Reference, error) {
	refs := append([]mapper.Reference(nil), desc.References...)
	for _, decl := range decls {
		ref, err := desc.Reference(decl.field, decl.collection)
		if err != nil {
			return nil, err
		}
		replaced := false
		for i := range refs {
			if refs[i].Field == ref.Field {
				refs[i] = ref
				replaced = true
			}
		}
		if !replaced {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// EntityType returns the reflect.Type of T.
func (s *Set[T]) EntityType() reflect.Type {
	return reflect.TypeFor[T]()
}

// CollectionName returns the name of the bound collection.
func (s *Set[T]) CollectionName() string {
	return s.mapping.Collection()
}

// References returns the reference fields of T in inclusion order.
func (s *Set[T]) References() []mapper.Reference {
	return s.mapping.References()
}

// Collection exposes the underlying engine handle.
func (s *Set[T]) Collection() core.Collection {
	return s.coll
}

// Insert stores entity and returns its identifier. A generated identifier is
// written back into entity.
func (s *Set[T]) Insert(ctx context.Context, entity *T) (any, error) {
	doc, err := s.mapping.Encode(entity)
	if err != nil {
		return nil, err
	}
	id, err := s.coll.Insert(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := s.writeBack(entity, id); err != nil {
		return nil, err
	}
	return id, nil
}

// InsertMany stores entities atomically and returns how many were stored.
func (s *Set[T]) InsertMany(ctx context.Context, entities []*T) (int, error) {
	docs := make([]core.Document, len(entities))
	for i, e := range entities {
		doc, err := s.mapping.Encode(e)
		if err != nil {
			return 0, fmt.Errorf("entity %d: %w", i, err)
		}
		docs[i] = doc
	}

	n, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	for i, e := range entities {
		if err := s.writeBack(e, docs[i][core.IDKey]); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// FindByID returns the entity with the given identifier, or nil.
func (s *Set[T]) FindByID(ctx context.Context, id any) (*T, error) {
	doc, err := s.coll.FindByID(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return s.decode(doc)
}

// FindAll streams every entity. Each call runs a new query.
func (s *Set[T]) FindAll(ctx context.Context) iter.Seq2[*T, error] {
	return s.seq(s.coll.FindAll(ctx))
}

// Find streams the entities matching pred. Fields are named as on the
// entity: the identity by its Go or JSON name, a reference's identity as
// "Field.ID".
func (s *Set[T]) Find(ctx context.Context, pred query.Predicate) iter.Seq2[*T, error] {
	return s.seq(s.coll.Find(ctx, documentPredicate(s.mapping, pred)))
}

// FindOne returns the first entity matching pred, or nil.
func (s *Set[T]) FindOne(ctx context.Context, pred query.Predicate) (*T, error) {
	return s.Query().Where(pred).First(ctx)
}

func (s *Set[T]) Count(ctx context.Context, pred query.Predicate) (int64, error) {
	return s.coll.Count(ctx, documentPredicate(s.mapping, pred))
}

func (s *Set[T]) Exists(ctx context.Context, pred query.Predicate) (bool, error) {
	return s.Query().Where(pred).Exists(ctx)
}

// Update overwrites the stored entity with the same identifier. It reports
// false, and stores nothing, when there is none.
func (s *Set[T]) Update(ctx context.Context, entity *T) (bool, error) {
	doc, err := s.mapping.Encode(entity)
	if err != nil {
		return false, err
	}
	return s.coll.Update(ctx, doc)
}

// Upsert inserts entity or overwrites the stored one. It reports true when
// the entity was inserted and false when it replaced an existing document.
func (s *Set[T]) Upsert(ctx context.Context, entity *T) (bool, error) {
	doc, err := s.mapping.Encode(entity)
	if err != nil {
		return false, err
	}
	inserted, err := s.coll.Upsert(ctx, doc)
	if err != nil {
		return false, err
	}
	if err := s.writeBack(entity, doc[core.IDKey]); err != nil {
		return false, err
	}
	return inserted, nil
}

// Delete removes the entity with the given identifier and reports whether it existed.
func (s *Set[T]) Delete(ctx context.Context, id any) (bool, error) {
	return s.coll.Delete(ctx, id)
}

// DeleteMany removes every entity matching pred.
func (s *Set[T]) DeleteMany(ctx context.Context, pred query.Predicate) (int64, error) {
	return s.coll.DeleteMany(ctx, documentPredicate(s.mapping, pred))
}

// Query starts a typed query over the collection.
func (s *Set[T]) Query() *Query[T] {
	return &Query[T]{q: s.coll.Query(), mapping: s.mapping}
}

// WithReferences returns a read-only view resolving every reference field.
// A new view is built on each call.
func (s *Set[T]) WithReferences() *ReferenceSet[T] {
	coll := s.coll
	for _, ref := range s.mapping.References() {
		coll = coll.Include(ref.Path())
	}
	return &ReferenceSet[T]{coll: coll, mapping: s.mapping}
}

// writeBack fills a zero identity with the identifier the engine assigned.
func (s *Set[T]) writeBack(entity *T, id any) error {
	if id == nil {
		return nil
	}
	if _, ok := s.mapping.ID(entity); ok {
		return nil
	}
	return s.mapping.SetID(entity, id)
}

func (s *Set[T]) decode(doc core.Document) (*T, error) {
	return decode[T](s.mapping, doc)
}

func (s *Set[T]) seq(docs iter.Seq2[core.Document, error]) iter.Seq2[*T, error] {
	return decodeSeq[T](s.mapping, docs)
}

func decode[T any](m *mapper.Mapping, doc core.Document) (*T, error) {
	out := new(T)
	if err := m.Decode(doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeSeq[T any](m *mapper.Mapping, docs iter.Seq2[core.Document, error]) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for doc, err := range docs {
			if err != nil {
				yield(nil, err)
				return
			}
			entity, err := decode[T](m, doc)
			if !yield(entity, err) || err != nil {
				return
			}
		}
	}
}

var _ Binder = (*Set[struct{ ID string }])(nil)
