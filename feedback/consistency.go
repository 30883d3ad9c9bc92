package feedback

import "github.com/hupe1980/wordgain/word"

// IsConsistent reports whether candidate, had it been the answer, would have
// produced pattern for guess.
//
// Positions are evaluated Correct first, then Present, then Absent:
//   - Correct requires the candidate to hold the guessed letter there.
//   - Present requires a different letter there and an unclaimed occurrence
//     of the guessed letter elsewhere, which it then claims.
//   - Absent requires a different letter there and no unclaimed occurrence
//     left once all Correct and Present claims are made.
//
// Present claims of one letter must also precede its Absent positions, which
// is the left-to-right order Encode hands out occurrences in. With these rules
// the result equals Encode(guess, candidate).Equal(pattern) for every pattern.
func IsConsistent(guess word.Word, pattern Pattern, candidate word.Word) (bool, error) {
	if err := word.CheckPair(guess, candidate); err != nil {
		return false, err
	}
	if err := pattern.Validate(len(guess)); err != nil {
		return false, err
	}
	return isConsistent(guess, pattern, candidate), nil
}

// isConsistent assumes validated inputs.
func isConsistent(guess word.Word, pattern Pattern, candidate word.Word) bool {
	n := len(guess)
	counts := word.CountLetters(candidate)

	for i := 0; i < n; i++ {
		if pattern[i] != Correct {
			continue
		}
		if guess[i] != candidate[i] {
			return false
		}
		counts.Dec(guess[i])
	}

	// lastPresent[x] is the rightmost Present position of letter x, or -1.
	var lastPresent [word.AlphabetSize]int
	for i := range lastPresent {
		lastPresent[i] = -1
	}
	for i := 0; i < n; i++ {
		if pattern[i] != Present {
			continue
		}
		if guess[i] == candidate[i] || !counts.Take(guess[i]) {
			return false
		}
		lastPresent[guess[i]-'a'] = i
	}

	for i := 0; i < n; i++ {
		if pattern[i] != Absent {
			continue
		}
		if guess[i] == candidate[i] || counts.Get(guess[i]) > 0 {
			return false
		}
		if lastPresent[guess[i]-'a'] > i {
			return false
		}
	}
	return true
}
