package word

// LetterCounts holds the remaining occurrence count of each letter within a
// single word. It is indexed by letter-'a' and lives for one call only.
type LetterCounts [AlphabetSize]int

// CountLetters returns the letter histogram of w.
func CountLetters(w Word) LetterCounts {
	var c LetterCounts
	for i := 0; i < len(w); i++ {
		c[w[i]-'a']++
	}
	return c
}

// Get returns the remaining count of letter b.
func (c *LetterCounts) Get(b byte) int { return c[b-'a'] }

// Take decrements the count of b if one is left and reports whether it did.
func (c *LetterCounts) Take(b byte) bool {
	if c[b-'a'] <= 0 {
		return false
	}
	c[b-'a']--
	return true
}

// Dec decrements the count of b unconditionally.
func (c *LetterCounts) Dec(b byte) { c[b-'a']-- }
