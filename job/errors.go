package job

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the job runtime matches one of these
// with errors.Is.
var (
	ErrStorage           = errors.New("storage error")
	ErrNotFound          = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrSerialization     = errors.New("serialization error")
	ErrInternal          = errors.New("internal error")
)

// StorageError is an opaque storage backend failure.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage error: " + e.Err.Error() }

// Unwrap returns the backend error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NotFoundError is returned when a job id is not known.
type NotFoundError struct {
	ID ID
}

func (e *NotFoundError) Error() string { return "job not found: " + string(e.ID) }

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransitionError is returned when a state change is rejected.
type TransitionError struct {
	From   State
	To     State
	Reason string
}

// NewTransitionError returns a transition error for the given pair.
func NewTransitionError(from, to State) *TransitionError {
	return &TransitionError{
		From:   from,
		To:     to,
		Reason: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func (e *TransitionError) Error() string { return "invalid transition: " + e.Reason }

// Is matches ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// SerializationError wraps a payload encoding or decoding failure.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return "serialization error: " + e.Err.Error() }

// Unwrap returns the codec error.
func (e *SerializationError) Unwrap() error { return e.Err }

// Is matches ErrSerialization.
func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

// InternalError is a catch-all failure.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }

// Is matches ErrInternal.
func (e *InternalError) Is(target error) bool { return target == ErrInternal }
