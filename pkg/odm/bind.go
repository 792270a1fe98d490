package odm

import (
	"context"
	"reflect"
	"unsafe"

	"github.com/aretw0/litedoc/pkg/typed"
)

var binderType = reflect.TypeFor[typed.Binder]()

// bind assigns a freshly bound set to every field of v whose type is a
// pointer implementing typed.Binder, recursing into embedded structs.
func (c *Context) bind(ctx context.Context, mb *ModelBuilder, v reflect.Value, prefix string) error {
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		fv := v.Field(i)
		path := prefix + f.Name

		switch {
		case f.Type.Kind() == reflect.Pointer && f.Type.Implements(binderType) && f.Type.Elem().Kind() == reflect.Struct:
			set := reflect.New(f.Type.Elem())
			binder := set.Interface().(typed.Binder)
			if err := binder.Bind(ctx, mb.engine, mb.setOptions(binder.EntityType())...); err != nil {
				return &BindError{Field: path, Err: err}
			}
			settable(fv).Set(set)

			name := ""
			if named, ok := binder.(interface{ CollectionName() string }); ok {
				name = named.CollectionName()
			}
			c.sets[path] = name
			mb.logger.Debug("set bound", "field", path, "entity", binder.EntityType().String(), "collection", name)

		case f.Anonymous && f.Type.Kind() == reflect.Struct:
			if err := c.bind(ctx, mb, fv, path+"."); err != nil {
				return err
			}

		case f.Anonymous && f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct && !fv.IsNil():
			if err := c.bind(ctx, mb, fv.Elem(), path+"."); err != nil {
				return err
			}
		}
	}
	return nil
}

// settable returns fv, or an alias of it that can be set when the field is
// unexported. fv must be addressable.
func settable(fv reflect.Value) reflect.Value {
	if fv.CanSet() {
		return fv
	}
	return reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
}
