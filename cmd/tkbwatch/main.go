package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tkbconv/internal/config"
	"tkbconv/internal/logging"
	"tkbconv/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("TKB_WATCH_DIR", cfg.WatchDir))
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	profile, err := config.LoadProfile(cfg.Profile)
	must(err)
	if cfg.RequireActivePeriod {
		profile.Policy.RequireActivePeriod = true
	}

	svc := watcher.NewService(cfg, profile)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
