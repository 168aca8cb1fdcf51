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
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := appConfig.Validate(true); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Logging.Level), appConfig.Logging.Format)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appConfig, logger); err != nil {
		logger.Error("[Main] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, appConfig *config.Config, logger *internal.Logger) error {
	db, err := container.OpenDatabase(ctx, appConfig.Database)
	if err != nil {
		return err
	}

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		db.Close()
		return err
	}
	defer appContainer.Close()

	if err := appContainer.InitWithDatabase(ctx, db, true); err != nil {
		return err
	}

	api, err := appContainer.APIServer()
	if err != nil {
		return err
	}
	dashboard, err := appContainer.DashboardApp()
	if err != nil {
		return err
	}

	if appContainer.SheetSource != nil {
		logger.Info("[Main] dashboard reads %s", appContainer.SheetSource.Name())
	} else {
		logger.Info("[Main] EXCEL_FILE not set, dashboard reads the projects table")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(ctx, ":"+appConfig.Server.Port)
	})
	g.Go(func() error {
		return dashboard.Run(ctx, ":"+appConfig.Server.UIPort)
	})
	return g.Wait()
}
