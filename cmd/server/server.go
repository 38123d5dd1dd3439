package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/quipper/poc/gradebook/internal/app"
	"github.com/quipper/poc/gradebook/internal/config"
	gradebookHandler "github.com/quipper/poc/gradebook/internal/controller/http/gradebook"
	"github.com/quipper/poc/gradebook/internal/server"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// The server binary is configured from the environment (and .env) only.
// Use `gradebook serve` for flags and config files.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Error("load .env: %v", err)
		os.Exit(1)
	}
	cfg, err := config.Load(config.New(), os.Getenv("GRADEBOOK_CONFIG"))
	if err != nil {
		logger.Error("load config: %v", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.LogLevel)
	logger.Info("starting server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Error("init repo: %v", err)
		os.Exit(1)
	}
	defer a.Close()

	h := gradebookHandler.NewHandler(a.Controller, a.Repo)
	if err := server.Run(ctx, cfg.HTTP, cfg.Addr(), server.NewRouter(cfg.HTTP, h)); err != nil {
		logger.Error("server: %v", err)
	}
	logger.Sync()
}
