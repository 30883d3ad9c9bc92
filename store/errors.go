package store

import (
	"errors"
	"fmt"

	"github.com/hupe1980/wordgain/matrix"
)

var (
	// ErrStorage is matched by every *StorageError via errors.Is.
	ErrStorage = errors.New("storage error")

	// ErrNotFound is returned by Query for a cell that has not been committed.
	ErrNotFound = errors.New("cell not found")

	// ErrNoTable is returned when no table has been created yet.
	ErrNoTable = errors.New("matrix table does not exist")

	// ErrSchemaMismatch is returned when a stored table was built from a
	// different dictionary or batch size.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrUnresolved is returned by Query for a cell whose computation failed.
	ErrUnresolved = errors.New("cell is unresolved")
)

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Cause: err}
}

// UnresolvedError reports the cell behind an ErrUnresolved.
type UnresolvedError struct {
	Cell  matrix.CellRef
	Cause error
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("cell %s is unresolved: %v", e.Cell, e.Cause)
}

func (e *UnresolvedError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrUnresolved.
func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }
