package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordgain/codec"
	"github.com/hupe1980/wordgain/render"
	"github.com/hupe1980/wordgain/word"
)

type queryResult struct {
	Guess   string   `json:"guess"`
	Answer  string   `json:"answer"`
	Pattern string   `json:"pattern"`
	Count   int      `json:"count"`
	Words   []string `json:"words"`
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		live   bool
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "query GUESS ANSWER",
		Short: "List the words still possible after GUESS is played against ANSWER",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			guess, answer := strings.ToLower(args[0]), strings.ToLower(args[1])

			var dict *word.Dictionary
			if live {
				d, err := a.loadDictionary()
				if err != nil {
					return err
				}
				dict = d
			}
			an, err := a.open(ctx, dict)
			if err != nil {
				return err
			}
			defer an.Close()

			var words []word.Word
			if live {
				words, err = an.Reduce(guess, answer)
			} else {
				words, err = an.Query(ctx, guess, answer)
			}
			if err != nil {
				return err
			}

			pattern, err := an.Encode(guess, answer)
			if err != nil {
				return err
			}

			res := queryResult{
				Guess:   guess,
				Answer:  answer,
				Pattern: pattern.String(),
				Count:   len(words),
				Words:   make([]string, len(words)),
			}
			for i, w := range words {
				res.Words[i] = string(w)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			cells, err := render.Cells(word.Word(guess), pattern)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderer(plain).Row(cells))
			fmt.Fprintf(out, "%d words\n", res.Count)
			for _, w := range res.Words {
				fmt.Fprintln(out, w)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.BoolVar(&asJSON, "json", false, "print JSON")
	fl.BoolVar(&live, "live", false, "compute from the dictionary instead of reading the store")
	fl.BoolVar(&plain, "plain", false, "print feedback without colour")
	return cmd
}

func renderer(plain bool) render.Renderer {
	if plain {
		return render.Plain{}
	}
	return render.NewStyled()
}

func writeJSON(w io.Writer, v any) error {
	data, err := codec.GoJSON{}.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
