package mapper

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/aretw0/litedoc/pkg/core"
)

// Mapping converts entities of one type to documents of one collection.
// References must have their Collection resolved.
type Mapping struct {
	desc       *Descriptor
	collection string
	refs       []Reference
}

// NewMapping binds a descriptor to a collection. Each reference without an
// explicit collection is named by naming.
func NewMapping(desc *Descriptor, collection string, refs []Reference, naming Namer) *Mapping {
	if naming == nil {
		naming = TypeName
	}
	resolved := make([]Reference, len(refs))
	for i, r := range refs {
		if r.Collection == "" {
			r.Collection = naming(r.Target)
		}
		resolved[i] = r
	}
	return &Mapping{desc: desc, collection: collection, refs: resolved}
}

func (m *Mapping) Collection() string {
	return m.collection
}

// References returns the resolved reference fields in declaration order.
func (m *Mapping) References() []Reference {
	return append([]Reference(nil), m.refs...)
}

func (m *Mapping) Descriptor() *Descriptor {
	return m.desc
}

// Encode converts a struct or pointer to struct into a document. A zero
// identity is left out so the engine can generate one.
func (m *Mapping) Encode(entity any) (core.Document, error) {
	rv := reflect.Indirect(reflect.ValueOf(entity))
	if !rv.IsValid() || rv.Type() != m.desc.Type {
		return nil, fmt.Errorf("encode: expected %s, got %T", m.desc.Type, entity)
	}

	doc, err := toMap(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.desc.Type, err)
	}

	for _, name := range m.desc.skipped {
		delete(doc, name)
	}

	delete(doc, m.desc.Identity.Name)
	if id, ok := identityValue(rv, m.desc.Identity); ok {
		doc[core.IDKey] = id
	}

	for _, ref := range m.refs {
		fv, err := rv.FieldByIndexErr(ref.index)
		if err != nil {
			continue
		}
		if _, present := doc[ref.Name]; !present {
			// omitempty already dropped it
			continue
		}
		stub, err := encodeRef(fv, ref)
		if err != nil {
			return nil, &ReferenceError{Type: m.desc.Type, Field: ref.Field, Err: err}
		}
		doc[ref.Name] = stub
	}

	return doc, nil
}

func encodeRef(fv reflect.Value, ref Reference) (any, error) {
	if !ref.List {
		return refStub(fv, ref)
	}
	if fv.IsNil() {
		return nil, nil
	}
	out := make([]any, fv.Len())
	for i := range out {
		stub, err := refStub(fv.Index(i), ref)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = stub
	}
	return out, nil
}

// refStub returns the DbRef stub for a referenced entity. A nil pointer or
// a zero struct value stores no reference.
func refStub(v reflect.Value, ref Reference) (any, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	} else if v.IsZero() {
		return nil, nil
	}
	id, err := identityOf(ref.Target)
	if err != nil {
		return nil, err
	}
	value, ok := identityValue(v, id)
	if !ok {
		return nil, fmt.Errorf("referenced %s has no identifier", ref.Target)
	}
	return core.NewRef(value, ref.Collection), nil
}

// Decode fills out, a pointer to the entity type, from doc. Unresolved
// references become entities holding only their identifier; resolved ones
// are decoded in full.
func (m *Mapping) Decode(doc core.Document, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != m.desc.Type {
		return fmt.Errorf("decode: expected *%s, got %T", m.desc.Type, out)
	}

	tree := denormalize(map[string]any(doc), m.desc, m.refs)
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("decode %s: %w", m.desc.Type, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", m.desc.Type, err)
	}
	return nil
}

// ID returns the identity of entity, false when it is the zero value.
func (m *Mapping) ID(entity any) (any, bool) {
	rv := reflect.Indirect(reflect.ValueOf(entity))
	if !rv.IsValid() || rv.Type() != m.desc.Type {
		return nil, false
	}
	return identityValue(rv, m.desc.Identity)
}

// SetID stores id into entity's identity field, converting it through its
// JSON form (so a generated string fills a uuid.UUID).
func (m *Mapping) SetID(entity any, id any) error {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Type() != m.desc.Type {
		return fmt.Errorf("set id: expected *%s, got %T", m.desc.Type, entity)
	}
	fv, err := rv.Elem().FieldByIndexErr(m.desc.Identity.index)
	if err != nil {
		return fmt.Errorf("set id: %w", err)
	}

	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("set id: %w", err)
	}
	ptr := reflect.New(fv.Type())
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return fmt.Errorf("set id: %w", err)
	}
	fv.Set(ptr.Elem())
	return nil
}

// denormalize turns a stored document into the JSON shape of its entity:
// "_id" moves back to the identity key and every reference holds an object.
// Fields outside refs that hold a stub or a resolved document are converted
// too, using the field's type, so references declared without tags on a
// nested entity decode the same way.
func denormalize(doc map[string]any, desc *Descriptor, refs []Reference) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	if v, ok := out[core.IDKey]; ok {
		delete(out, core.IDKey)
		out[desc.Identity.Name] = v
	}

	declared := make(map[string]bool, len(refs))
	for _, ref := range refs {
		declared[ref.Name] = true
		if v, ok := out[ref.Name]; ok {
			out[ref.Name] = denormalizeValue(v, ref.Target)
		}
	}

	for _, f := range desc.fields {
		v, ok := out[f.name]
		if !ok || declared[f.name] || !holdsDocument(v) {
			continue
		}
		if target, ok := structTarget(f.typ); ok {
			out[f.name] = denormalizeValue(v, target)
		}
	}
	return out
}

// denormalizeValue converts a reference value or a list of them.
func denormalizeValue(v any, target reflect.Type) any {
	list, ok := v.([]any)
	if !ok {
		return denormalizeRef(v, target)
	}
	items := make([]any, len(list))
	for i, el := range list {
		items[i] = denormalizeRef(el, target)
	}
	return items
}

func denormalizeRef(v any, target reflect.Type) any {
	if refID, _, ok := core.AsRef(v); ok {
		id, err := identityOf(target)
		if err != nil {
			return nil
		}
		return map[string]any{id.Name: refID}
	}

	var m map[string]any
	switch t := v.(type) {
	case core.Document:
		m = t
	case map[string]any:
		m = t
	default:
		return v
	}

	desc, err := Describe(target)
	if err != nil {
		return v
	}
	return denormalize(m, desc, desc.References)
}

// holdsDocument reports whether v is a stub, a stored document (it carries
// "_id"), or a list containing one.
func holdsDocument(v any) bool {
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if holdsDocument(el) {
				return true
			}
		}
		return false
	case core.Document:
		_, ok := t[core.IDKey]
		return ok || isRef(t)
	case map[string]any:
		_, ok := t[core.IDKey]
		return ok || isRef(t)
	}
	return false
}

func isRef(v any) bool {
	_, _, ok := core.AsRef(v)
	return ok
}

// structTarget returns the entity type held by a field of type t
// (T, *T, []T or []*T) when it has an identity.
func structTarget(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	t = derefType(t)
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	if _, err := identityOf(t); err != nil {
		return nil, false
	}
	return t, true
}

// identityValue returns the identity field value, false when it is zero.
func identityValue(rv reflect.Value, id Identity) (any, bool) {
	fv, err := rv.FieldByIndexErr(id.index)
	if err != nil || fv.IsZero() {
		return nil, false
	}
	return fv.Interface(), true
}

func toMap(v any) (core.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc core.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
