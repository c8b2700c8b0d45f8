package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/atcoder-problems/problemsx/app/updater"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := updater.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	// Immediate pass before cron
	app.RunOnce(ctx)

	app.StartCron()
	app.SetupServer()
	app.Start(ctx)
}
