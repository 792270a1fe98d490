package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrReadOnly                = errors.New("engine is in read-only mode")
	ErrClosed                  = errors.New("engine is closed")
	ErrAlreadyExists           = errors.New("document already exists")
	ErrMissingID               = errors.New("document has no identifier")
	ErrInvalidConnectionString = errors.New("invalid connection string")
	ErrInvalidCollectionName   = errors.New("invalid collection name")
	ErrInvalidPath             = errors.New("invalid document path")
	ErrUnsupportedPredicate    = errors.New("unsupported predicate")
)

// AlreadyExistsError is returned when an insert collides with an existing identifier
// or a unique index entry.
type AlreadyExistsError struct {
	Collection string
	Key        string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s: duplicate key %s", e.Collection, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// IsAlreadyExists checks if an error is a duplicate key error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
