package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	root := newRootCmd(c)
	if err := root.ExecuteContext(ctx); err != nil {
		c.reportError(err)
		return 1
	}
	return 0
}
