package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"NormasScanner/internal/app"
	"NormasScanner/internal/config"
	"NormasScanner/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
