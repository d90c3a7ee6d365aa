package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/law-makers/labscrape/internal/cli"
)

func main() {
	// the crawler finishes the row in flight before returning
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
