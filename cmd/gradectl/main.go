// Package main runs the gradectl command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	gradectlcmd "github.com/louisbranch/boulderlog/internal/cmd/gradectl"
	"github.com/louisbranch/boulderlog/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gradectlcmd.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("gradectl: %v", err)
	}
}
