// Package main is the entry point for the authdemo CLI and web app.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"authdemo/internal/cli"
	"authdemo/internal/commands"
)

func main() {
	// Cancelled on interrupt; serve shuts down gracefully from here.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.OpenApp)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
