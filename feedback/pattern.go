package feedback

import (
	"strings"

	"github.com/hupe1980/wordgain/word"
)

// Symbol is the feedback for a single position.
type Symbol uint8

const (
	// Absent means the letter has no unclaimed occurrence in the answer.
	Absent Symbol = iota
	// Present means the letter occurs in the answer, but not at this position.
	Present
	// Correct means the letter is at this exact position in the answer.
	Correct
)

// Valid reports whether s is one of the three symbols.
func (s Symbol) Valid() bool { return s <= Correct }

func (s Symbol) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	case Correct:
		return "correct"
	default:
		return "invalid"
	}
}

// Letter returns the compact notation: 'c', 'p' or 'a'.
func (s Symbol) Letter() byte {
	switch s {
	case Correct:
		return 'c'
	case Present:
		return 'p'
	case Absent:
		return 'a'
	default:
		return '?'
	}
}

// Pattern is the ordered per-position feedback for one guess.
type Pattern []Symbol

// ParsePattern reads the compact notation, one of c/p/a per position
// (g/y/b are accepted as the colour aliases green/yellow/black).
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, word.Invalid("pattern", s, "empty")
	}
	p := make(Pattern, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'c', 'C', 'g', 'G':
			p[i] = Correct
		case 'p', 'P', 'y', 'Y':
			p[i] = Present
		case 'a', 'A', 'b', 'B', 'x', 'X':
			p[i] = Absent
		default:
			return nil, word.Invalid("pattern", s, "symbols must be one of c, p, a")
		}
	}
	return p, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the compact notation, e.g. "ppcpp".
func (p Pattern) String() string {
	b := make([]byte, len(p))
	for i, s := range p {
		b[i] = s.Letter()
	}
	return string(b)
}

// Equal reports whether both patterns are identical.
func (p Pattern) Equal(other Pattern) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Solved reports whether every position is Correct.
func (p Pattern) Solved() bool {
	for _, s := range p {
		if s != Correct {
			return false
		}
	}
	return len(p) > 0
}

// Code packs the pattern into a base-3 integer, position 0 most significant.
// Two patterns of the same length are equal iff their codes are equal.
func (p Pattern) Code() uint32 {
	var c uint32
	for _, s := range p {
		c = c*3 + uint32(s)
	}
	return c
}

// Validate checks the pattern against a word length.
func (p Pattern) Validate(length int) error {
	if len(p) != length {
		return word.Invalid("pattern", p.String(), "length does not match the guess")
	}
	for _, s := range p {
		if !s.Valid() {
			return word.Invalid("pattern", p.String(), "contains an invalid symbol")
		}
	}
	return nil
}
