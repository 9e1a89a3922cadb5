package library

import (
	"errors"
	"fmt"
)

// ErrMutationInFlight is returned when a mutation is issued for a collection
// or clip that already has an unresolved optimistic mutation. Callers retry
// after the first mutation settles.
var ErrMutationInFlight = errors.New("mutation already in flight")

// ErrOrderMismatch is returned when a reorder does not preserve the exact
// set of clip ids already in the collection.
var ErrOrderMismatch = errors.New("reorder does not preserve clip id set")

// NotFoundError reports that a referenced entity is absent from both store
// views at mutation time. No local mutation was attempted.
type NotFoundError struct {
	Kind string // "project", "collection", or "clip"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// RemoteError reports that the backend rejected a mutation. The optimistic
// local change was rolled back before this error was returned.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s rejected by backend: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
