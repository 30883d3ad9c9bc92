package wordgain

import (
	"errors"
	"fmt"

	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/store"
	"github.com/hupe1980/wordgain/word"
)

var (
	// ErrValidation is matched by malformed words, patterns, dictionaries and
	// arguments.
	ErrValidation = word.ErrValidation

	// ErrStorage is matched by failures of the matrix store.
	ErrStorage = store.ErrStorage

	// ErrComputation is matched by cells whose computation failed.
	ErrComputation = matrix.ErrComputation

	// ErrNotFound is returned for cells, tables and files that do not exist.
	ErrNotFound = store.ErrNotFound

	// ErrUnresolved is returned when querying a cell whose computation failed.
	ErrUnresolved = store.ErrUnresolved

	// ErrSchemaMismatch is returned when a stored table was built for another
	// dictionary or batch size.
	ErrSchemaMismatch = store.ErrSchemaMismatch

	// ErrClosed is returned by an Analyzer after Close.
	ErrClosed = errors.New("analyzer is closed")
)

// UnresolvedError reports the cell behind an ErrUnresolved.
type UnresolvedError = store.UnresolvedError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, store.ErrNoTable) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Argument normalization.
	if errors.Is(err, matrix.ErrInvalidRange) && !errors.Is(err, ErrValidation) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return err
}
