package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for request-level failures.
var (
	ErrUnknownKind = errors.New("unknown record kind")
	ErrInvalidMode = errors.New("invalid import mode")
	ErrNoRows      = errors.New("no rows to import")
	ErrTooManyRows = errors.New("too many rows in request")
)

// MissingRequiredFieldError is returned by MapRow when a required field is
// blank after coercion.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Field)
}

// ReferenceNotFoundError is returned by MapRow when an alternate code could
// not be resolved to an identifier.
type ReferenceNotFoundError struct {
	Code string
	Kind Kind
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("reference not found: no %s with code %q", e.Kind, e.Code)
}

// InvalidForeignKeyError reports a populated foreign-key field whose value
// is not among the identifiers of the referenced kind.
type InvalidForeignKeyError struct {
	Field string
	Kind  Kind
	Value string
}

func (e *InvalidForeignKeyError) Error() string {
	return fmt.Sprintf("invalid reference: %s %q does not exist in %s", e.Field, e.Value, e.Kind)
}

// SnapshotLoadError wraps a storage failure while building the snapshot.
// It aborts the whole run.
type SnapshotLoadError struct {
	Kind Kind
	Err  error
}

func (e *SnapshotLoadError) Error() string {
	return fmt.Sprintf("snapshot load failed for %s: %v", e.Kind, e.Err)
}

func (e *SnapshotLoadError) Unwrap() error {
	return e.Err
}

// RowWriteError wraps a storage failure while writing one row in commit mode.
// Row is the 1-based input position.
type RowWriteError struct {
	Row int
	Err error
}

func (e *RowWriteError) Error() string {
	return fmt.Sprintf("write failed: %v", e.Err)
}

func (e *RowWriteError) Unwrap() error {
	return e.Err
}
