package store

import (
	"context"
	"fmt"

	"github.com/hupe1980/wordgain/matrix"
	"github.com/hupe1980/wordgain/word"
)

// MatrixStore persists reduction matrix cells and batch progress.
type MatrixStore interface {
	// CreateOrReplaceTable drops any existing table and progress and
	// creates an empty one for schema.
	CreateOrReplaceTable(ctx context.Context, schema Schema) error

	// UpsertColumns writes every cell of the batch. Readers observe all of
	// the batch's cells or none of them. Rewriting a cell replaces it.
	UpsertColumns(ctx context.Context, batch *matrix.Batch) error

	// Query returns the reduced dictionary of (guess, answer) in dictionary
	// order. It fails with ErrNotFound for cells not committed yet and with
	// ErrUnresolved for cells whose computation failed.
	Query(ctx context.Context, guess, answer word.Word) ([]word.Word, error)

	// Count returns the size of the reduced dictionary of (guess, answer)
	// without materializing it. It fails like Query.
	Count(ctx context.Context, guess, answer word.Word) (int, error)

	// ReadProgress returns the watermark: every column below it is committed.
	ReadProgress(ctx context.Context) (int, error)

	// WriteProgress persists the watermark.
	WriteProgress(ctx context.Context, offset int) error

	// Schema returns the schema of the current table.
	Schema(ctx context.Context) (Schema, error)

	// Unresolved lists every committed cell whose computation failed.
	Unresolved(ctx context.Context) ([]matrix.CellRef, error)

	Close() error
}

// Schema describes a matrix table: its dictionary, in order, and the batch
// size it is built with.
type Schema struct {
	WordLength  int
	Words       []string
	Fingerprint uint64
	BatchSize   int
}

// SchemaFor derives the schema of a dictionary.
func SchemaFor(dict *word.Dictionary, batchSize int) Schema {
	return Schema{
		WordLength:  dict.WordLength(),
		Words:       dict.Strings(),
		Fingerprint: dict.Fingerprint(),
		BatchSize:   batchSize,
	}
}

// Dictionary rebuilds the dictionary of the schema.
func (s Schema) Dictionary() (*word.Dictionary, error) {
	return word.NewDictionary(s.WordLength, s.Words)
}

// Check returns ErrSchemaMismatch if s and other describe different tables.
func (s Schema) Check(other Schema) error {
	switch {
	case s.WordLength != other.WordLength:
		return fmt.Errorf("%w: word length %d, want %d", ErrSchemaMismatch, other.WordLength, s.WordLength)
	case len(s.Words) != len(other.Words) || s.Fingerprint != other.Fingerprint:
		return fmt.Errorf("%w: dictionary of %d words (%016x), want %d words (%016x)",
			ErrSchemaMismatch, len(other.Words), other.Fingerprint, len(s.Words), s.Fingerprint)
	case s.BatchSize != other.BatchSize:
		return fmt.Errorf("%w: batch size %d, want %d", ErrSchemaMismatch, other.BatchSize, s.BatchSize)
	}
	return nil
}

// CheckBatch verifies that batch was built from the table's dictionary.
func CheckBatch(dict *word.Dictionary, batch *matrix.Batch) error {
	if err := batch.Range.Validate(dict.Len()); err != nil {
		return err
	}
	if batch.Rows() != dict.Len() || batch.Width() != batch.Range.Len() {
		return fmt.Errorf("%w: batch %s has %d rows and %d columns for a dictionary of %d words",
			ErrSchemaMismatch, batch.Range, batch.Rows(), batch.Width(), dict.Len())
	}
	for col, g := range batch.Guesses {
		if dict.At(batch.Range.Start+col) != g {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaMismatch, batch.Range.Start+col, g, dict.At(batch.Range.Start+col))
		}
	}
	for row, a := range batch.Answers {
		if dict.At(row) != a {
			return fmt.Errorf("%w: row %d is %q, want %q", ErrSchemaMismatch, row, a, dict.At(row))
		}
	}
	return nil
}

// lookupPair resolves a query pair to (guess column, answer row).
func lookupPair(dict *word.Dictionary, guess, answer word.Word) (int, int, error) {
	_, g, err := dict.Lookup(string(guess))
	if err != nil {
		return 0, 0, err
	}
	_, a, err := dict.Lookup(string(answer))
	if err != nil {
		return 0, 0, err
	}
	return g, a, nil
}
