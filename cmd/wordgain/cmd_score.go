package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hupe1980/wordgain"
	"github.com/hupe1980/wordgain/score"
	"github.com/hupe1980/wordgain/word"
)

type scoreRow struct {
	Rank              int     `json:"rank"`
	Guess             string  `json:"guess"`
	ExpectedRemaining float64 `json:"expected_remaining"`
	WorstCase         int     `json:"worst_case"`
	Entropy           float64 `json:"entropy"`
	Unresolved        int     `json:"unresolved,omitempty"`
}

func newScoreCmd(a *app) *cobra.Command {
	var (
		policyName string
		source     string
		top        int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Rank first guesses",
		Long: `Score ranks every dictionary word as a first guess. The expected and worst
policies rank by the mean and maximum number of words left (lower is better),
entropy by the bits of information the feedback carries (higher is better).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			policy, err := score.ParsePolicy(policyName)
			if err != nil {
				return err
			}

			var an *wordgain.Analyzer
			switch source {
			case "matrix":
				an, err = a.open(ctx, nil)
			case "partitions":
				var dict *word.Dictionary
				if dict, err = a.loadDictionary(); err != nil {
					return err
				}
				opts, oerr := a.analyzerOptions()
				if oerr != nil {
					return oerr
				}
				an, err = wordgain.Open(ctx, wordgain.Memory(), dict, opts...)
			default:
				return word.Invalid("source", source, "expected matrix or partitions")
			}
			if err != nil {
				return err
			}
			defer an.Close()

			src := wordgain.FromMatrix
			if source == "partitions" {
				src = wordgain.FromPartitions
			}
			scores, err := an.Score(ctx, policy, src)
			if err != nil {
				return err
			}
			if top > 0 {
				scores = score.Top(scores, policy, top)
			}

			rows := make([]scoreRow, len(scores))
			for i, s := range scores {
				rows[i] = scoreRow{
					Rank:              i + 1,
					Guess:             string(s.Guess),
					ExpectedRemaining: s.ExpectedRemaining,
					WorstCase:         s.WorstCase,
					Entropy:           s.Entropy,
					Unresolved:        s.Unresolved,
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, rows)
			}
			fmt.Fprintln(out, scoreTable(rows))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&policyName, "policy", "expected", "ranking policy (expected, worst, entropy)")
	fl.StringVar(&source, "source", "matrix", "where class sizes come from (matrix, partitions)")
	fl.IntVar(&top, "top", 10, "number of guesses to print (0 prints all)")
	fl.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func scoreTable(rows []scoreRow) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "GUESS", "EXPECTED", "WORST", "ENTROPY")
	for _, r := range rows {
		t.Row(
			strconv.Itoa(r.Rank),
			r.Guess,
			strconv.FormatFloat(r.ExpectedRemaining, 'f', 3, 64),
			strconv.Itoa(r.WorstCase),
			strconv.FormatFloat(r.Entropy, 'f', 3, 64),
		)
	}
	return t.Render()
}
