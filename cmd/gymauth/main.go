package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/armin-soft/Fit-Master-sub001/internal/app"
	"github.com/armin-soft/Fit-Master-sub001/internal/config"
	"github.com/armin-soft/Fit-Master-sub001/internal/logger"
)

func main() {
	// a missing .env is fine, the environment may be set already
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(logger.Config{
		Level:        cfg.LogLevel,
		Dev:          cfg.LogDev,
		File:         cfg.LogFile,
		MaxAge:       cfg.LogMaxAge,
		RotationTime: cfg.LogRotationTime,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, lg); err != nil {
		lg.Fatal("app", zap.Error(err))
	}
}
