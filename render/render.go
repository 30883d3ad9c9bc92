// Package render draws guesses with their feedback, one coloured tile per
// letter: green for correct, yellow for present, grey for absent.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/word"
)

// Cell is one tile: a guess letter and its feedback.
type Cell struct {
	Letter byte
	Symbol feedback.Symbol
}

// Cells pairs the letters of guess with pattern.
func Cells(guess word.Word, pattern feedback.Pattern) ([]Cell, error) {
	if err := pattern.Validate(len(guess)); err != nil {
		return nil, err
	}
	cells := make([]Cell, len(guess))
	for i := range cells {
		cells[i] = Cell{Letter: guess[i], Symbol: pattern[i]}
	}
	return cells, nil
}

// Encode returns the tiles guess receives against answer.
func Encode(guess, answer word.Word) ([]Cell, error) {
	p, err := feedback.Encode(guess, answer)
	if err != nil {
		return nil, err
	}
	return Cells(guess, p)
}

// Renderer draws rows of tiles.
type Renderer interface {
	Row(cells []Cell) string
	Table(rows [][]Cell) string
}

// Styled renders tiles with lipgloss.
type Styled struct {
	correct lipgloss.Style
	present lipgloss.Style
	absent  lipgloss.Style
	frame   lipgloss.Style
}

// NewStyled returns the default colour scheme.
func NewStyled() *Styled {
	tile := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Padding(0, 1)

	return &Styled{
		correct: tile.Background(lipgloss.Color("34")),
		present: tile.Background(lipgloss.Color("220")),
		absent:  tile.Background(lipgloss.Color("245")),
		frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("178")),
	}
}

func (s *Styled) style(sym feedback.Symbol) lipgloss.Style {
	switch sym {
	case feedback.Correct:
		return s.correct
	case feedback.Present:
		return s.present
	default:
		return s.absent
	}
}

// Row renders one guess.
func (s *Styled) Row(cells []Cell) string {
	tiles := make([]string, len(cells))
	for i, c := range cells {
		tiles[i] = s.style(c.Symbol).Render(strings.ToUpper(string(c.Letter)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

// Table renders guesses below each other inside a frame.
func (s *Styled) Table(rows [][]Cell) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = s.Row(r)
	}
	return s.frame.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Plain renders tiles without colour: the word followed by its compact
// c/p/a pattern, e.g. "crane cpaaa".
type Plain struct{}

// Row renders one guess.
func (Plain) Row(cells []Cell) string {
	letters := make([]byte, len(cells))
	marks := make([]byte, len(cells))
	for i, c := range cells {
		letters[i] = c.Letter
		marks[i] = c.Symbol.Letter()
	}
	return fmt.Sprintf("%s %s", letters, marks)
}

// Table renders one row per line.
func (p Plain) Table(rows [][]Cell) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = p.Row(r)
	}
	return strings.Join(lines, "\n")
}

var (
	_ Renderer = (*Styled)(nil)
	_ Renderer = Plain{}
)
