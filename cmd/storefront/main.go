// Package main provides the storefront command line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := &environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	err := newRootCommand(env).ExecuteContext(ctx)
	env.shutdown(context.Background())
	if err != nil {
		stop()
		os.Exit(1)
	}
}
