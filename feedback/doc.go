// Package feedback implements the game's feedback rule and its inverse.
//
// Encode computes the per-position pattern a guess receives against an answer.
// IsConsistent decides whether a candidate could have been the answer that
// produced a pattern. The two are exact inverses:
//
//	IsConsistent(g, Encode(g, a), c) == (Encode(g, c) == Encode(g, a))
//
// so filtering a dictionary with IsConsistent partitions it into the same
// classes Encode induces. Reduce applies the filter to a whole dictionary.
//
// # Duplicate letters
//
// Exact matches claim their letter first. The remaining occurrences of a
// letter in the answer are then handed out left to right across the guess; a
// guess letter that finds none left is Absent even if the answer contains the
// letter elsewhere:
//
//	Encode("sassy", "mesas") == [Present Present Correct Absent Absent]
package feedback
