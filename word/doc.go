// Package word defines the fixed-length words and dictionaries the analyzer
// works on.
//
// # Types
//
//   - Word: an immutable sequence of lowercase letters a–z
//   - Dictionary: an ordered set of unique words of one length
//   - LetterCounts: per-letter occurrence counts of a single word
//
// Words are validated when parsed. Every other package assumes a Word it is
// handed came from Parse or from a Dictionary, but still checks lengths where a
// mismatch would produce a wrong answer instead of a panic.
package word
