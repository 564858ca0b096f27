package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp(os.Stdin).RunContext(ctx, os.Args); err != nil {
		log.Fatalf("gophauth client failed: %v", err)
	}
}
