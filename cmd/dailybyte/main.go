package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"DailyByte/internal/app"
	"DailyByte/internal/config"
	"DailyByte/internal/logging"
	"DailyByte/internal/usecase"
)

func main() {
	var (
		preview     bool
		skipCollect bool
		skipProcess bool
		daemon      bool
		configPath  string
	)
	flag.BoolVar(&preview, "preview", false, "render the digest to the preview file instead of sending it")
	flag.BoolVar(&preview, "p", false, "shorthand for -preview")
	flag.BoolVar(&skipCollect, "skip-collect", false, "reuse the raw batch from the last collection")
	flag.BoolVar(&skipProcess, "skip-process", false, "reuse the curated digest from the last run")
	flag.BoolVar(&daemon, "daemon", false, "run on the configured cron schedule until interrupted")
	flag.StringVar(&configPath, "config", "", "path to the YAML config (defaults to $DAILYBYTE_CONFIG)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(configPath)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	opts := usecase.RunOptions{Preview: preview, SkipCollect: skipCollect, SkipCurate: skipProcess}

	if daemon {
		if err := application.Serve(ctx, opts); err != nil {
			logger.Error("daemon stopped", "error", err)
			application.Close()
			os.Exit(1)
		}
		return
	}

	if _, err := application.Run(ctx, opts); err != nil {
		var missing *usecase.MissingCredentialError
		if errors.As(err, &missing) {
			fmt.Fprintf(os.Stderr, "set %s in the environment or .env file\n", missing.Name)
		}
		logger.Error("run failed", "error", err)
		application.Close()
		os.Exit(1)
	}
}
