package word

import (
	"fmt"
	"strings"
)

const (
	// AlphabetSize is the number of letters in the alphabet (a–z).
	AlphabetSize = 26

	// DefaultLength is the word length of the classic game.
	DefaultLength = 5
)

// Word is a lowercase word over the alphabet a–z.
type Word string

// Parse validates s as a word of the given length. Surrounding whitespace is
// trimmed and upper-case letters are folded to lower case.
func Parse(s string, length int) (Word, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if length <= 0 {
		return "", Invalid("word length", fmt.Sprint(length), "must be positive")
	}
	if len(s) != length {
		return "", Invalid("word", s, fmt.Sprintf("expected %d letters, got %d", length, len(s)))
	}
	w := Word(s)
	if err := w.Validate(); err != nil {
		return "", err
	}
	return w, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string, length int) Word {
	w, err := Parse(s, length)
	if err != nil {
		panic(err)
	}
	return w
}

// Validate checks that every byte of w is a letter a–z.
func (w Word) Validate() error {
	if len(w) == 0 {
		return Invalid("word", string(w), "empty")
	}
	for i := 0; i < len(w); i++ {
		if !IsLetter(w[i]) {
			return Invalid("word", string(w), fmt.Sprintf("character %q at position %d is outside a-z", w[i], i))
		}
	}
	return nil
}

// Len returns the number of letters in w.
func (w Word) Len() int { return len(w) }

// At returns the letter at position i.
func (w Word) At(i int) byte { return w[i] }

func (w Word) String() string { return string(w) }

// IsLetter reports whether b is in the alphabet.
func IsLetter(b byte) bool { return b >= 'a' && b <= 'z' }

// CheckPair validates that guess and answer are well-formed words of equal length.
func CheckPair(guess, answer Word) error {
	if err := guess.Validate(); err != nil {
		return err
	}
	if err := answer.Validate(); err != nil {
		return err
	}
	if len(guess) != len(answer) {
		return Invalid("word pair", string(guess)+"/"+string(answer),
			fmt.Sprintf("length mismatch %d != %d", len(guess), len(answer)))
	}
	return nil
}
