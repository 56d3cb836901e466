package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/futig/fundqa-bot/internal/builder"
	"github.com/futig/fundqa-bot/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, builder.BuildIndexAdmin); err != nil {
		stop()
		os.Exit(1)
	}
}
