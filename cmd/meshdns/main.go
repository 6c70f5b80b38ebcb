// Package main provides the entry point for the meshdns CLI tool.
package main

import (
	"context"
	"os"

	"github.com/agentstation/meshdns/cmd/meshdns/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application := app.New(version, commit, date, builtBy)

	// Create context with signal handling so an interrupt cancels in-flight requests
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		cancel()
		app.ExitOnError(err)
	}
}
