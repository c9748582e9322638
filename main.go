// Command gridmarket runs the energy token marketplace client: it polls the
// ledger for balances and listings, drives sale and purchase workflows and
// serves a local web dashboard.
//
// Usage:
//
//	gridmarket --config config.yaml
//	gridmarket --setup   (interactive configuration wizard)
//
// Required environment variables:
//
//	GRIDMARKET_PRIVATE_KEY  hex-encoded signing key for the session account
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/gridmarket/config"
	"github.com/vadiminshakov/gridmarket/internal/app"
	"github.com/vadiminshakov/gridmarket/internal/setup"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--setup" || arg == "-setup" {
			if err := setup.RunTUI(); err != nil {
				log.Fatal(err)
			}
			return
		}
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start marketplace client", zap.Error(err))
	}

	if err := a.Run(ctx); err != nil {
		logger.Fatal("marketplace client exited with error", zap.Error(err))
	}
}
