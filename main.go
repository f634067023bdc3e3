package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/perfgo/ctsrun/cli"
	"github.com/perfgo/ctsrun/exitcodes"
)

// Version information, set by goreleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cli.New()
	c.SetVersion(version, commit, date)
	os.Exit(exitCode(c.Run(ctx, os.Args)))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.Is(err, cli.ErrTestsFailed):
		log.Print(err)
		return exitcodes.TestFailure
	}
	log.Print(err)
	return exitcodes.RuntimeErr
}
