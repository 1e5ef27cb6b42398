package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a stored resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned when operating on a closed adapter.
	ErrClosed = errors.New("adapter is closed")
)

// ErrInvalidOperation is returned when an operation is malformed or of an unknown kind.
type ErrInvalidOperation struct {
	Message string
}

func (e ErrInvalidOperation) Error() string {
	return fmt.Sprintf("invalid operation: %s", e.Message)
}

// ErrInvalidTransaction is returned when a transaction cannot apply to a document.
type ErrInvalidTransaction struct {
	Message string
}

func (e ErrInvalidTransaction) Error() string {
	return fmt.Sprintf("invalid transaction: %s", e.Message)
}

// ErrNotElement is returned when an element was expected at an offset.
type ErrNotElement struct {
	Offset int
}

func (e ErrNotElement) Error() string {
	return fmt.Sprintf("item at offset %d is not an element", e.Offset)
}

// ErrAnnotation is returned for annotation misuse: duplicate sets, clearing an annotation
// that is not set, unknown methods and annotating element markers.
type ErrAnnotation struct {
	Message string
}

func (e ErrAnnotation) Error() string {
	return fmt.Sprintf("invalid annotation: %s", e.Message)
}

// ErrOutOfBounds is returned when an index falls outside a sequence.
type ErrOutOfBounds struct {
	Index  int
	Length int
}

func (e ErrOutOfBounds) Error() string {
	return fmt.Sprintf("index %d out of bounds (length %d)", e.Index, e.Length)
}

// ErrHashNotFound is returned when a hash is not present in a store.
type ErrHashNotFound struct {
	Hash string
}

func (e ErrHashNotFound) Error() string {
	return fmt.Sprintf("hash not found: %s", e.Hash)
}

// ErrInvalidRange is returned when a range is built from incomplete input.
type ErrInvalidRange struct {
	Message string
}

func (e ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid range: %s", e.Message)
}

// ErrInvalidScope is returned for an unknown selection expansion scope.
type ErrInvalidScope struct {
	Scope string
}

func (e ErrInvalidScope) Error() string {
	return fmt.Sprintf("invalid expansion scope: %s", e.Scope)
}

// ErrUnbalanced is returned when linear data has unmatched element markers.
type ErrUnbalanced struct {
	Offset  int
	Message string
}

func (e ErrUnbalanced) Error() string {
	return fmt.Sprintf("unbalanced data at offset %d: %s", e.Offset, e.Message)
}
