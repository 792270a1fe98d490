package mapper

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotStruct    = errors.New("entity must be a struct")
	ErrNoIdentity   = errors.New("entity has no identity field")
	ErrNoSuchField  = errors.New("no such field")
	ErrInvalidField = errors.New("field cannot hold a reference")
)

// ReferenceError describes a reference field that cannot be mapped.
type ReferenceError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}
