package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/wordgain/feedback"
	"github.com/hupe1980/wordgain/word"
)

func TestEncode(t *testing.T) {
	cells, err := Encode("sassy", "mesas")
	require.NoError(t, err)
	assert.Equal(t, []Cell{
		{'s', feedback.Present},
		{'a', feedback.Present},
		{'s', feedback.Correct},
		{'s', feedback.Absent},
		{'y', feedback.Absent},
	}, cells)

	_, err = Encode("sassy", "mesa")
	assert.ErrorIs(t, err, word.ErrValidation)
}

func TestCells(t *testing.T) {
	_, err := Cells("crane", feedback.MustParsePattern("ccc"))
	assert.ErrorIs(t, err, word.ErrValidation)
}

func TestPlain(t *testing.T) {
	row1, err := Encode("sassy", "mesas")
	require.NoError(t, err)
	row2, err := Encode("mesas", "mesas")
	require.NoError(t, err)

	assert.Equal(t, "sassy ppcaa", Plain{}.Row(row1))
	assert.Equal(t, "sassy ppcaa\nmesas ccccc", Plain{}.Table([][]Cell{row1, row2}))
}

func TestStyled(t *testing.T) {
	r := NewStyled()
	cells, err := Encode("crane", "slate")
	require.NoError(t, err)

	row := r.Row(cells)
	assert.Equal(t, 15, lipgloss.Width(row))
	for _, l := range "CRANE" {
		assert.Contains(t, row, string(l))
	}

	table := r.Table([][]Cell{cells, cells})
	assert.Equal(t, 17, lipgloss.Width(table))
	assert.Equal(t, 4, lipgloss.Height(table))
	assert.Equal(t, 2, strings.Count(table, "C"))
}
