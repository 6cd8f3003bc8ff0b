package store

import (
	"errors"
	"fmt"
)

// NotFoundError reports a lookup of a named entity that does not exist
// in the store: a selection, sample, or word set.
type NotFoundError struct {
	Kind string // "selection", "sample", "wordset"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// IsNotFound returns true if the error is a NotFoundError.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
