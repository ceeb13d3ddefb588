package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"o3enc/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if services.IsCanceled(err) {
			fmt.Fprintln(os.Stderr, "Interrupted")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	stop()
	os.Exit(services.ExitCode(err))
}
