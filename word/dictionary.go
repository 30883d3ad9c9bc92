package word

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Dictionary is an ordered sequence of unique words of equal length.
//
// Order only matters for deterministic batching: the i-th word of the
// dictionary is both the i-th answer row and the i-th guess column of the
// reduction matrix. A Dictionary is read-only after construction and safe for
// concurrent use.
type Dictionary struct {
	words  []Word
	index  map[Word]int
	length int
}

// NewDictionary parses words into a Dictionary of the given word length.
// Duplicates are rejected rather than silently dropped, since they would shift
// every column after them.
func NewDictionary(length int, words []string) (*Dictionary, error) {
	if len(words) == 0 {
		return nil, Invalid("dictionary", "", "no words")
	}
	d := &Dictionary{
		words:  make([]Word, 0, len(words)),
		index:  make(map[Word]int, len(words)),
		length: length,
	}
	for i, s := range words {
		w, err := Parse(s, length)
		if err != nil {
			return nil, fmt.Errorf("dictionary entry %d: %w", i, err)
		}
		if prev, ok := d.index[w]; ok {
			return nil, Invalid("dictionary", string(w), fmt.Sprintf("duplicate of entry %d at entry %d", prev, i))
		}
		d.index[w] = len(d.words)
		d.words = append(d.words, w)
	}
	return d, nil
}

// MustDictionary is like NewDictionary but panics on error.
func MustDictionary(length int, words ...string) *Dictionary {
	d, err := NewDictionary(length, words)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of words (N).
func (d *Dictionary) Len() int { return len(d.words) }

// WordLength returns the length every word has (L).
func (d *Dictionary) WordLength() int { return d.length }

// At returns the i-th word.
func (d *Dictionary) At(i int) Word { return d.words[i] }

// Index returns the position of w, if present.
func (d *Dictionary) Index(w Word) (int, bool) {
	i, ok := d.index[w]
	return i, ok
}

// Contains reports whether w is a member.
func (d *Dictionary) Contains(w Word) bool {
	_, ok := d.index[w]
	return ok
}

// Words returns a copy of the words in dictionary order.
func (d *Dictionary) Words() []Word { return slices.Clone(d.words) }

// Strings returns the words as plain strings in dictionary order.
func (d *Dictionary) Strings() []string {
	out := make([]string, len(d.words))
	for i, w := range d.words {
		out[i] = string(w)
	}
	return out
}

// Lookup parses s and returns its dictionary index.
func (d *Dictionary) Lookup(s string) (Word, int, error) {
	w, err := Parse(s, d.length)
	if err != nil {
		return "", -1, err
	}
	i, ok := d.index[w]
	if !ok {
		return w, -1, Invalid("word", s, "not in dictionary")
	}
	return w, i, nil
}

// Fingerprint identifies the dictionary content and order. Two dictionaries
// with the same fingerprint produce the same matrix layout.
func (d *Dictionary) Fingerprint() uint64 {
	h := xxhash.New()
	_, _ = fmt.Fprintf(h, "%d:", d.length)
	for _, w := range d.words {
		_, _ = h.WriteString(string(w))
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}
