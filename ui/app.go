package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"redevdash/adapters/excel"
	"redevdash/app"
	"redevdash/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// App is the spreadsheet-backed dashboard
type App struct {
	router    *chi.Mux
	dashboard *app.DashboardService
	exporter  *excel.Exporter
	templates *template.Template
	log       *internal.Logger
}

// NewApp creates the dashboard application
func NewApp(dashboard *app.DashboardService, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	templates, err := template.New("").Funcs(templateFuncs()).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		dashboard: dashboard,
		exporter:  excel.NewExporter(),
		templates: templates,
		log:       logger,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/health", a.handleHealth)
	a.router.Get("/projects/{key}/analysis", a.handleAnalysis)
	a.router.Get("/export.xlsx", a.handleExport)

	a.router.Get("/api/view", a.handleView)
	a.router.Get("/api/projects/{key}/analysis", a.handleAnalysisJSON)
}

// ServeHTTP implements http.Handler
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run serves until the context is cancelled
func (a *App) Run(ctx context.Context, addr string) error {
	return serve(ctx, &http.Server{
		Addr:              addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}, a.log, "dashboard")
}
