package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apicheck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(loadRuntime, os.Stdout)
	return root.ExecuteContext(ctx)
}

// loadRuntime builds the runtime from environment config.
func loadRuntime(ctx context.Context) (*app.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	logger.InfoObj("apicheck starting", "config", map[string]any{
		"app_name":   cfg.AppName,
		"deploy_env": cfg.DeployEnv,
		"base_url":   cfg.APIBaseURL,
	})

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runtime", "error", err)
		return nil, err
	}
	return rt, nil
}
