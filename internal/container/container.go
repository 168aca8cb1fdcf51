package container

import (
	"context"
	"fmt"
	"time"

	"redevdash/adapters/excel"
	"redevdash/adapters/notify"
	"redevdash/adapters/postgres"
	"redevdash/app"
	"redevdash/internal"
	"redevdash/internal/auth"
	"redevdash/internal/config"
	"redevdash/internal/errors"
	"redevdash/internal/migration"
	"redevdash/ports"
	"redevdash/ui"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Log    *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	ProjectRepo ports.ProjectRepository
	UserRepo    ports.UserRepository
	Notifier    ports.Notifier
	Tokens      *auth.TokenManager

	// Services
	Projects       *app.ProjectService
	Auth           *app.AuthService
	Import         *app.ImportService
	DBDashboard    *app.DashboardService
	SheetDashboard *app.DashboardService
	SheetSource    *excel.Source
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Log:    logger,
	}

	if cfg.Data.ExcelFile != "" {
		c.SheetSource = excel.NewSource(cfg.Data.ExcelFile, cfg.Data.ExcelSheet)
		c.SheetDashboard = app.NewDashboardService(c.SheetSource)
	}

	return c, nil
}

// OpenDatabase connects to PostgreSQL and applies the pool limits
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.URL
	if dsn == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxIdleTime(30 * time.Second)
	return db, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB, migrate bool) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.PingContext(ctx); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to ping database"))
	}

	if migrate {
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			return err
		}
	}

	c.ProjectRepo = postgres.NewProjectRepository(db)
	c.UserRepo = postgres.NewUserRepository(db)
	c.Notifier = notify.NewLogNotifier(c.Log, c.Config.Auth.AdminEmail)
	c.Tokens = auth.NewTokenManager(c.Config.Auth.JWTSecret, c.Config.Auth.TokenTTL)

	c.Projects = app.NewProjectService(c.ProjectRepo, c.Log)
	c.Auth = app.NewAuthService(c.UserRepo, c.Notifier, c.Tokens, c.Config.Auth, c.Log)
	c.Import = app.NewImportService(c.ProjectRepo, c.Log)
	c.DBDashboard = app.NewDashboardService(postgres.NewProjectRowSource(c.ProjectRepo))

	c.Log.Info("[Container] database components initialized")
	return nil
}

// APIServer builds the REST server; InitWithDatabase must have run
func (c *Container) APIServer() (*ui.Server, error) {
	if c.Projects == nil {
		return nil, errors.ConfigInvalid("database components are not initialized")
	}
	return ui.NewServer(ui.ServerDeps{
		Projects:    c.Projects,
		Dashboard:   c.DBDashboard,
		Auth:        c.Auth,
		FrontendURL: c.Config.Auth.FrontendURL,
		GinMode:     c.Config.Server.GinMode,
		Logger:      c.Log,
	}), nil
}

// DashboardApp builds the spreadsheet dashboard, falling back to database rows
// when no spreadsheet is configured
func (c *Container) DashboardApp() (*ui.App, error) {
	dashboard := c.SheetDashboard
	if dashboard == nil {
		dashboard = c.DBDashboard
	}
	if dashboard == nil {
		return nil, errors.ConfigInvalid("EXCEL_FILE or a database is required for the dashboard")
	}
	return ui.NewApp(dashboard, c.Log)
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
