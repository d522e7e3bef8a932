// Command swiftctl works with guarantee FIN messages offline and talks to a
// running messagingd over gRPC.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := NewCommand().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
