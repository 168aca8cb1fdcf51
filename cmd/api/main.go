package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"redevdash/internal"
	"redevdash/internal/config"
	"redevdash/internal/container"

	"github.com/joho/godotenv"
)

// Serves only the REST API.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(true); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := container.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	c, err := container.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Close()

	if err := c.InitWithDatabase(ctx, db, true); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	server, err := c.APIServer()
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}
	if err := server.Run(ctx, ":"+cfg.Server.Port); err != nil {
		logger.Error("[API] %v", err)
		os.Exit(1)
	}
}
