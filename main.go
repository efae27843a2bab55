// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/reflow-cli/cmd"
)

// main is the entry point for the reflow CLI.
func main() {
	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM)
	// so a long-running inference pass can be abandoned cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
