// Package main runs the user service: configuration, dependency wiring and
// the HTTP server lifecycle.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/usergate/user_service/internal/app"
	"github.com/usergate/user_service/internal/config"
	"github.com/usergate/user_service/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New("user-service", cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewBuilder().
		WithLogger(logger).
		WithConfig(cfg).
		WithMiddleware().
		WithDatabase().
		WithAuth().
		WithRepository().
		WithService().
		WithController().
		Build(ctx)
	if err != nil {
		logger.WithError(err).Error("application startup failed")
		log.Fatalf("startup: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		logger.WithError(err).Error("server failed")
	}

	if err := application.Shutdown(context.Background()); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
}
