package provenance

import "fmt"

// StorageError represents a failure in a ledger storage backend.
type StorageError struct {
	Backend   string // storage backend type ("sqlite", "memory")
	Operation string // operation that failed ("append", "read", "tail")
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// DuplicateEventError reports an append that would overwrite an existing
// (trace_id, sequence_index) slot. The ledger never edits in place, so
// this always indicates a serialization bug or a concurrent writer
// outside the ledger.
type DuplicateEventError struct {
	TraceID  string
	Sequence int
}

// Error implements the error interface.
func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("duplicate ledger event [trace_id=%s, sequence_index=%d]", e.TraceID, e.Sequence)
}
