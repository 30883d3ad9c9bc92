// Command wordgain builds and queries Wordle reduction matrices.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/wordgain"
	"github.com/hupe1980/wordgain/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wordgain:", err)
	}
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, wordgain.ErrValidation), errors.Is(err, config.ErrInvalid):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
