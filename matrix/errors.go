package matrix

import (
	"errors"
	"fmt"

	"github.com/hupe1980/wordgain/word"
)

var (
	// ErrComputation is matched by every *ComputationError via errors.Is.
	ErrComputation = errors.New("computation error")

	// ErrInvalidRange is returned for a column range outside the dictionary.
	ErrInvalidRange = errors.New("invalid column range")
)

// ComputationError marks a single (guess, answer) cell that could not be
// computed. The original cause is available via errors.Unwrap.
type ComputationError struct {
	Guess  word.Word
	Answer word.Word
	Cause  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("compute guess %q answer %q: %v", e.Guess, e.Answer, e.Cause)
}

func (e *ComputationError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrComputation.
func (e *ComputationError) Is(target error) bool { return target == ErrComputation }
