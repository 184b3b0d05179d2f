package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("note taker failed to start: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("note taker exited: %v", err)
	}
}
