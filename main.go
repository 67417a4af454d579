// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/raylty/linkcheck-cli/cmd"
	"github.com/raylty/linkcheck-cli/internal/observability"
)

// main is the entry point for the linkcheck CLI.
func main() {
	// Ctrl+C aborts the batch gracefully: partial results are still written.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
