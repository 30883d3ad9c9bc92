package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type statusResult struct {
	Store      string   `json:"store"`
	Words      int      `json:"words"`
	WordLength int      `json:"word_length"`
	BatchSize  int      `json:"batch_size"`
	NextOffset int      `json:"next_offset"`
	Complete   bool     `json:"complete"`
	Unresolved []string `json:"unresolved"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the progress of the stored matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			an, err := a.open(ctx, nil)
			if err != nil {
				return err
			}
			defer an.Close()

			st, err := an.Status(ctx)
			if err != nil {
				return err
			}

			res := statusResult{
				Store:      a.cfg.Store.Kind,
				Words:      st.Words,
				WordLength: st.WordLength,
				BatchSize:  st.BatchSize,
				NextOffset: st.NextOffset,
				Complete:   st.Complete,
				Unresolved: make([]string, len(st.Unresolved)),
			}
			for i, c := range st.Unresolved {
				res.Unresolved[i] = c.String()
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			state := "in progress"
			if res.Complete {
				state = "complete"
			}
			fmt.Fprintf(out, "store:      %s\n", res.Store)
			fmt.Fprintf(out, "words:      %d (%d letters)\n", res.Words, res.WordLength)
			fmt.Fprintf(out, "batch size: %d\n", res.BatchSize)
			fmt.Fprintf(out, "progress:   %d/%d (%s)\n", res.NextOffset, res.Words, state)
			fmt.Fprintf(out, "unresolved: %d\n", len(res.Unresolved))
			for _, c := range res.Unresolved {
				fmt.Fprintf(out, "  %s\n", c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
