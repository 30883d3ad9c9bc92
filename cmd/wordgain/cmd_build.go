package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compute the reduction matrix into the store",
		Long: `Build computes the reduced dictionary of every (guess, answer) pair in
batches of guess columns and commits each batch atomically. With --resume a
build continues after the last committed batch of an earlier run; without it
the stored table is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			dict, err := a.loadDictionary()
			if err != nil {
				return err
			}
			an, err := a.open(ctx, dict)
			if err != nil {
				return err
			}
			defer an.Close()

			report, err := an.Build(ctx)
			if report != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "run %s: columns %d..%d of %d, %d batches, %d cells\n",
					report.RunID, report.Start, report.NextOffset, dict.Len(), report.Batches, report.Cells)
				for _, cell := range report.Unresolved {
					fmt.Fprintf(out, "unresolved %s\n", cell)
				}
				if report.Complete {
					fmt.Fprintln(out, "complete")
				}
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.Int("batch-size", 0, "guess columns per batch")
	fl.Bool("resume", false, "continue from the stored progress")
	fl.Int("workers", 0, "goroutines per batch (0 uses GOMAXPROCS)")
	fl.Int("max-in-flight", 0, "batches computed concurrently")
	fl.Int64("memory-limit", 0, "bytes reserved by in-flight batches (0 is unlimited)")
	fl.String("strategy", "", "cell computation (filter, partition)")
	fl.String("compression", "", "segment compression (none, lz4, zstd)")
	fl.Int("retries", 0, "commit retries per batch")
	return cmd
}
