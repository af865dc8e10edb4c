package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/apihook/internal/app"
	"github.com/samvad-hq/apihook/internal/config"
	"github.com/samvad-hq/apihook/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiprobe failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("apiprobe starting", "config", map[string]any{
		"app_name":               cfg.AppName,
		"app_env":                cfg.Env,
		"target_url":             cfg.TargetURL,
		"method":                 cfg.Method,
		"signal_ttl_ms":          cfg.SignalTTLMillis,
		"with_credentials":       cfg.WithCredentials,
		"probe_interval_seconds": cfg.ProbeIntervalSeconds,
		"cookie_store_type":      cfg.CookieStoreType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probe, err := app.NewProbe(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize probe", "error", err.Error())
		return err
	}

	if err := probe.Run(ctx); err != nil {
		return fmt.Errorf("probe run: %w", err)
	}

	return nil
}
