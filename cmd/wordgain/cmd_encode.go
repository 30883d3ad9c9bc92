package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordgain/render"
	"github.com/hupe1980/wordgain/word"
)

func newEncodeCmd(a *app) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "encode ANSWER GUESS...",
		Short: "Show the feedback each GUESS receives against ANSWER",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := word.Parse(strings.ToLower(args[0]), a.cfg.WordLength)
			if err != nil {
				return err
			}

			rows := make([][]render.Cell, 0, len(args)-1)
			for _, arg := range args[1:] {
				guess, err := word.Parse(strings.ToLower(arg), a.cfg.WordLength)
				if err != nil {
					return err
				}
				cells, err := render.Encode(guess, answer)
				if err != nil {
					return err
				}
				rows = append(rows, cells)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderer(plain).Table(rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print feedback without colour")
	return cmd
}
