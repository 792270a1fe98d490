package odm

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is returned when the model is not a non-nil pointer to a struct.
var ErrInvalidModel = errors.New("model must be a non-nil pointer to a struct")

// BindError reports a declared set that could not be bound.
type BindError struct {
	Field string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind field %s: %v", e.Field, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}
