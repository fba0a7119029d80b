package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"readfile/cli"
	"readfile/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.L().Warn("readfile.signal", "signal", sig.String())
		cancel()
	}()

	code := cli.Execute(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}
