package storage

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrStorageClosed     = errors.New("storage is closed")
	ErrIndexNotFound     = errors.New("index not found")
	ErrSnapshotReleased  = errors.New("snapshot already released")
	ErrInvalidProperty   = errors.New("invalid property")
	ErrMarshalFailed     = errors.New("marshal failed")
	ErrPersistFailed     = errors.New("persist failed")
	ErrTransactionClosed = errors.New("transaction has already ended")
)

// StorageError provides structured error information for storage operations.
type StorageError struct {
	Op      string // Operation that failed (e.g., "CreateNode", "DropIndex")
	Entity  string // "node", "index", "store"
	ID      uint64
	Field   string
	Cause   error
	Context string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.ID != 0 {
		if e.Field != "" {
			return fmt.Sprintf("%s %s %d (field %s): %v", e.Op, e.Entity, e.ID, e.Field, e.Cause)
		}
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.Field, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building StorageErrors.
type ErrorBuilder struct {
	err StorageError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StorageError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id uint64) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Index sets the entity to "index" keyed by key.
func (b *ErrorBuilder) Index(key IndexKey) *ErrorBuilder {
	b.err.Entity = "index"
	b.err.Field = key.String()
	return b
}

// Store sets the entity to the persistent store.
func (b *ErrorBuilder) Store() *ErrorBuilder {
	b.err.Entity = "store"
	return b
}

// Field sets the field name for property operations.
func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed StorageError.
func (b *ErrorBuilder) Build() *StorageError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(nodeID uint64) error {
	return NewError("get").Node(nodeID).Cause(ErrNodeNotFound).Err()
}

// IndexNotFoundError reports a missing index.
func IndexNotFoundError(op string, key IndexKey) error {
	return NewError(op).Index(key).Cause(ErrIndexNotFound).Err()
}

// PersistError wraps a failure of the persistent store.
func PersistError(op string, cause error) error {
	return NewError(op).Store().Cause(fmt.Errorf("%w: %w", ErrPersistFailed, cause)).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrIndexNotFound)
}

// IsClosed returns true if the error indicates the storage is closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrStorageClosed)
}
