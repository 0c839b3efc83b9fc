package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrSaveInProgress is returned when a save is requested while a
	// previous save for the same slide has not finished. Callers should
	// disable the save action rather than retry immediately.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrStale signals that an asynchronous load or save completed after
	// the active slide changed. It is expected under rapid navigation and
	// should be discarded, never shown to the user.
	ErrStale = errors.New("operation is stale, surface generation changed")

	// ErrDisposed is returned when an operation targets a surface that has
	// already been disposed.
	ErrDisposed = errors.New("surface is disposed")
)

// InitializationError reports that a drawing surface could not be created.
type InitializationError struct {
	Reason string
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("surface initialization failed: %s", e.Reason)
}

// DeserializationError reports that a snapshot could not be decoded or that
// one of its objects failed validation. Index is -1 when the snapshot itself
// (rather than a specific object) is malformed.
type DeserializationError struct {
	Index int
	Kind  Kind
	Err   error
}

func (e *DeserializationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("snapshot decode failed: %v", e.Err)
	}
	return fmt.Sprintf("snapshot object %d (kind %q) invalid: %v", e.Index, e.Kind, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
