package errs

import (
	"errors"
	"fmt"
)

// ErrTransientStore marks failures that may succeed on a fresh attempt.
var ErrTransientStore = errors.New("transient store error")

// ConcurrentUpdateError is returned when a conditional update matched zero rows
// because another writer changed the row first.
type ConcurrentUpdateError struct {
	Entity string
	ID     string
}

func NewConcurrentUpdateError(entity, id string) *ConcurrentUpdateError {
	return &ConcurrentUpdateError{Entity: entity, ID: id}
}

func (e *ConcurrentUpdateError) Error() string {
	return fmt.Sprintf("%s: %s %s was modified concurrently", ErrTransientStore, e.Entity, e.ID)
}

func (e *ConcurrentUpdateError) Unwrap() error {
	return ErrTransientStore
}

// StoreUnavailableError wraps a driver failure classified as retryable.
type StoreUnavailableError struct {
	Op    string
	Cause error
}

func NewStoreUnavailableError(op string, cause error) *StoreUnavailableError {
	return &StoreUnavailableError{Op: op, Cause: cause}
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s (cause: %v)", ErrTransientStore, e.Op, e.Cause)
}

func (e *StoreUnavailableError) Unwrap() []error {
	return []error{ErrTransientStore, e.Cause}
}
