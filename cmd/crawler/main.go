package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/atcoder-problems/problemsx/app/crawler"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := crawler.Initialize(ctx)
	if err != nil {
		panic(err)
	}

	app.StartCron()
	app.SetupServer()
	app.Start(ctx)
}
