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

// Serves the spreadsheet dashboard on its own, without a database.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Data.ExcelFile == "" {
		log.Fatal("EXCEL_FILE is required")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format)
	defer logger.Sync()

	c, err := container.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	dashboard, err := c.DashboardApp()
	if err != nil {
		log.Fatalf("Failed to create dashboard: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("[UI] dashboard over %s", c.SheetSource.Name())
	if err := dashboard.Run(ctx, ":"+cfg.Server.UIPort); err != nil {
		log.Fatal(err)
	}
}
