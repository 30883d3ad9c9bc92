package feedback

import "github.com/hupe1980/wordgain/word"

// Encode returns the feedback the game reports for guess against answer.
//
// Both words must be valid and of equal length; otherwise a
// *word.ValidationError is returned.
func Encode(guess, answer word.Word) (Pattern, error) {
	if err := word.CheckPair(guess, answer); err != nil {
		return nil, err
	}
	return encode(guess, answer), nil
}

// encode assumes a validated pair.
func encode(guess, answer word.Word) Pattern {
	n := len(guess)
	p := make(Pattern, n)
	counts := word.CountLetters(answer)

	// Exact matches claim their letters before anything else.
	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			p[i] = Correct
			counts.Dec(answer[i])
		}
	}

	for i := 0; i < n; i++ {
		if p[i] == Correct {
			continue
		}
		if counts.Take(guess[i]) {
			p[i] = Present
		} else {
			p[i] = Absent
		}
	}
	return p
}
