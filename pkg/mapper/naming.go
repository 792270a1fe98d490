package mapper

import "reflect"

// Namer maps an entity type to its collection name.
type Namer func(reflect.Type) string

// TypeName is the default Namer: the declared name of the type, pointers
// and slices removed, case preserved.
func TypeName(t reflect.Type) string {
	return elem(t).Name()
}

// elem strips slices and pointers down to the underlying type.
func elem(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t
}
