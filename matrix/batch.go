package matrix

import (
	"fmt"

	"github.com/hupe1980/wordgain/bitmap"
	"github.com/hupe1980/wordgain/word"
)

// Range is a half-open range [Start, End) of guess columns.
type Range struct {
	Start int
	End   int
}

// Len returns the number of columns.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether column i is in the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Overlaps reports whether both ranges share a column.
func (r Range) Overlaps(o Range) bool { return r.Start < o.End && o.Start < r.End }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Validate checks the range against a dictionary of n words.
func (r Range) Validate(n int) error {
	if r.Start < 0 || r.End > n || r.Start >= r.End {
		return fmt.Errorf("%w: %s for %d columns", ErrInvalidRange, r, n)
	}
	return nil
}

// CellRef names a single matrix cell.
type CellRef struct {
	Guess  word.Word
	Answer word.Word
}

func (c CellRef) String() string { return string(c.Guess) + "/" + string(c.Answer) }

// Cell is one reduced dictionary, held as dictionary indices.
type Cell struct {
	Set *bitmap.Set
	// Err is non-nil, usually a *ComputationError, when the cell is unresolved.
	Err error
}

// Resolved reports whether the cell holds a computed set.
func (c Cell) Resolved() bool { return c.Err == nil && c.Set != nil }

// Batch is the slice of the reduction matrix covering one column range across
// every answer row.
type Batch struct {
	Range   Range
	Guesses []word.Word
	Answers []word.Word

	// cells is row-major: cells[row*width+col].
	cells []Cell
}

// NewBatch allocates an empty batch.
func NewBatch(r Range, guesses, answers []word.Word) *Batch {
	return &Batch{
		Range:   r,
		Guesses: guesses,
		Answers: answers,
		cells:   make([]Cell, len(guesses)*len(answers)),
	}
}

// Width returns the number of guess columns.
func (b *Batch) Width() int { return len(b.Guesses) }

// Rows returns the number of answer rows.
func (b *Batch) Rows() int { return len(b.Answers) }

// Len returns the number of cells.
func (b *Batch) Len() int { return len(b.cells) }

// Cell returns the cell of answer row and guess column col (relative to Range.Start).
func (b *Batch) Cell(row, col int) Cell { return b.cells[row*len(b.Guesses)+col] }

// SetCell stores a cell. Concurrent callers must write disjoint cells.
func (b *Batch) SetCell(row, col int, c Cell) { b.cells[row*len(b.Guesses)+col] = c }

// Row returns the column values of one answer row, keyed by guess.
func (b *Batch) Row(row int) map[word.Word]Cell {
	out := make(map[word.Word]Cell, len(b.Guesses))
	for col, g := range b.Guesses {
		out[g] = b.Cell(row, col)
	}
	return out
}

// Unresolved lists the cells that could not be computed.
func (b *Batch) Unresolved() []CellRef {
	var refs []CellRef
	for row, a := range b.Answers {
		for col, g := range b.Guesses {
			if !b.Cell(row, col).Resolved() {
				refs = append(refs, CellRef{Guess: g, Answer: a})
			}
		}
	}
	return refs
}

// Words maps a set of dictionary indices back to words, in dictionary order.
func Words(dict *word.Dictionary, set *bitmap.Set) []word.Word {
	out := make([]word.Word, 0, set.Cardinality())
	for id := range set.Iterator() {
		out = append(out, dict.At(int(id)))
	}
	return out
}

// cellOverheadBytes approximates the in-memory cost of one cell: the Cell
// header plus a small run-optimized roaring bitmap.
const cellOverheadBytes = 96

// EstimateBytes approximates the memory a batch of rows×width cells holds.
func EstimateBytes(rows, width int) int64 {
	return int64(rows) * int64(width) * cellOverheadBytes
}
