package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"NewsForge/internal/app"
	"NewsForge/internal/config"
	"NewsForge/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single generation cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application start failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	run := application.Run
	if *once {
		run = application.RunOnce
	}

	if err := run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
