package mapper

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/litedoc/pkg/core"
)

const tagName = "doc"

var uuidType = reflect.TypeOf(uuid.UUID{})

// Identity describes the identity field of an entity type.
type Identity struct {
	Field string
	// Name is the field's encoding/json name.
	Name  string
	Type  reflect.Type
	index []int
}

// AutoID returns how missing identifiers of this type are generated:
// uuid.UUID gets a GUID, integers get the next integer, anything else
// must be set by the caller.
func (id Identity) AutoID() core.AutoID {
	switch {
	case id.Type == uuidType:
		return core.AutoIDGUID
	case isInteger(id.Type.Kind()):
		return core.AutoIDInt64
	}
	return core.AutoIDNone
}

// Reference describes a field holding a DbRef or a list of DbRefs.
type Reference struct {
	Field string
	// Name is the document key of the field.
	Name string
	// Collection is the target collection. Empty means the collection is
	// named after Target.
	Collection string
	List       bool
	Target     reflect.Type
	index      []int
}

// Path returns the include path for the reference, rooted at "$".
func (r Reference) Path() string {
	return "$." + r.Name
}

// Descriptor is the cached mapping information of one entity type.
type Descriptor struct {
	Type     reflect.Type
	Identity Identity
	// References are the tagged reference fields, in declaration order.
	References []Reference

	fields  map[string]field
	skipped []string
}

type field struct {
	goName string
	name   string
	index  []int
	typ    reflect.Type
}

var (
	descriptors sync.Map // reflect.Type -> *Descriptor
	identities  sync.Map // reflect.Type -> Identity
)

// Describe returns the descriptor of t, which must be a struct or a pointer
// to one.
func Describe(t reflect.Type) (*Descriptor, error) {
	t = derefType(t)
	if d, ok := descriptors.Load(t); ok {
		return d.(*Descriptor), nil
	}

	d, err := describe(t)
	if err != nil {
		return nil, err
	}
	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

// DescribeOf is Describe for the type parameter T.
func DescribeOf[T any]() (*Descriptor, error) {
	return Describe(reflect.TypeFor[T]())
}

func describe(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	id, err := identityOf(t)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Type:     t,
		Identity: id,
		fields:   make(map[string]field),
	}

	for _, f := range structFields(t) {
		tag := f.Tag.Get(tagName)
		name := jsonName(f)

		if tag == "-" {
			if name != "" {
				d.skipped = append(d.skipped, name)
			}
			continue
		}
		if name == "" {
			continue
		}

		fd := field{goName: f.Name, name: name, index: f.Index, typ: f.Type}
		d.fields[f.Name] = fd

		kind, arg, _ := strings.Cut(tag, "=")
		if kind != "ref" {
			continue
		}
		ref, err := newReference(t, fd, arg)
		if err != nil {
			return nil, err
		}
		d.References = append(d.References, ref)
	}

	return d, nil
}

// Reference builds a reference descriptor for an arbitrary field, looked up
// by Go name or document name. It is used to declare references without
// struct tags.
func (d *Descriptor) Reference(fieldName, collection string) (Reference, error) {
	fd, ok := d.fields[fieldName]
	if !ok {
		for _, f := range d.fields {
			if f.name == fieldName {
				fd, ok = f, true
				break
			}
		}
	}
	if !ok {
		return Reference{}, &ReferenceError{Type: d.Type, Field: fieldName, Err: ErrNoSuchField}
	}
	return newReference(d.Type, fd, collection)
}

func newReference(owner reflect.Type, fd field, collection string) (Reference, error) {
	t := fd.typ
	list := false
	if t.Kind() == reflect.Slice {
		list = true
		t = t.Elem()
	}
	target := derefType(t)
	if target.Kind() != reflect.Struct {
		return Reference{}, &ReferenceError{Type: owner, Field: fd.goName, Err: fmt.Errorf("%w: %s", ErrInvalidField, fd.typ)}
	}
	if _, err := identityOf(target); err != nil {
		return Reference{}, &ReferenceError{Type: owner, Field: fd.goName, Err: err}
	}

	return Reference{
		Field:      fd.goName,
		Name:       fd.name,
		Collection: collection,
		List:       list,
		Target:     target,
		index:      fd.index,
	}, nil
}

// identityOf finds the identity field of t without looking at references,
// so mutually referencing types can be described.
func identityOf(t reflect.Type) (Identity, error) {
	if id, ok := identities.Load(t); ok {
		return id.(Identity), nil
	}

	var tagged, named *reflect.StructField
	for _, f := range structFields(t) {
		switch {
		case f.Tag.Get(tagName) == "id":
			if tagged != nil {
				return Identity{}, fmt.Errorf("%s: more than one field tagged doc:\"id\"", t)
			}
			tagged = &f
		case named == nil && (f.Name == "ID" || f.Name == "Id"):
			named = &f
		}
	}

	f := tagged
	if f == nil {
		f = named
	}
	if f == nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrNoIdentity, t)
	}
	name := jsonName(*f)
	if name == "" {
		return Identity{}, fmt.Errorf("%w: %s.%s is not serialized", ErrNoIdentity, t, f.Name)
	}

	id := Identity{Field: f.Name, Name: name, Type: f.Type, index: f.Index}
	identities.Store(t, id)
	return id, nil
}

// structFields lists exported fields, including those promoted from
// untagged embedded structs, the way encoding/json sees them.
func structFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous {
			ft := derefType(f.Type)
			if ft.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if len(f.Index) > 1 && !promoted(t, f.Index) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// promoted reports whether every struct on the index path is an untagged
// embedded struct.
func promoted(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if !f.Anonymous || f.Tag.Get("json") != "" {
			return false
		}
		t = derefType(f.Type)
	}
	return true
}

// jsonName returns the encoding/json key of f, or "" when it is not serialized.
func jsonName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" && !strings.Contains(tag, ",") {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
