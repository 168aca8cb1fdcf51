package ui

import (
	"context"
	"net/http"
	"time"

	"redevdash/app"
	"redevdash/internal"
	"redevdash/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Server is the REST API over the projects database
type Server struct {
	router      *gin.Engine
	projects    *app.ProjectService
	dashboard   *app.DashboardService
	auth        *app.AuthService
	frontendURL string
	log         *internal.Logger
}

// ServerDeps holds the services behind the REST API
type ServerDeps struct {
	Projects    *app.ProjectService
	Dashboard   *app.DashboardService
	Auth        *app.AuthService
	FrontendURL string
	GinMode     string
	Logger      *internal.Logger
}

// NewServer creates the API server and registers its routes
func NewServer(deps ServerDeps) *Server {
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &Server{
		router:      gin.New(),
		projects:    deps.Projects,
		dashboard:   deps.Dashboard,
		auth:        deps.Auth,
		frontendURL: deps.FrontendURL,
		log:         logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	requireAuth := middleware.RequireAuth(s.auth, s.log)

	optionalAuth := middleware.OptionalAuth(s.auth)
	projects := api.Group("/projects")
	projects.GET("", optionalAuth, s.handleListProjects)
	projects.GET("/:id", optionalAuth, s.handleGetProject)
	projects.GET("/:id/analysis", optionalAuth, s.handleProjectAnalysis)
	projects.POST("", requireAuth, s.handleCreateProject)
	projects.PUT("/:id", requireAuth, s.handleUpdateProject)
	projects.DELETE("/:id", requireAuth, s.handleDeleteProject)

	api.GET("/dashboard", s.handleDashboard)
	api.GET("/dashboard/stats", s.handleDashboardStats)
	api.GET("/filters", s.handleFilterOptions)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.POST("/verify", s.handleVerify)
	authGroup.POST("/logout", s.handleLogout)
	authGroup.POST("/forgot-password", s.handleForgotPassword)
	authGroup.POST("/reset-password/:token", s.handleResetPassword)
	authGroup.GET("/admin/approve/:token", s.handleApprove)
	authGroup.GET("/admin/pending-approvals", requireAuth, s.handlePendingApprovals)
}

// Run serves until the context is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	return serve(ctx, &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}, s.log, "api")
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.projects.Health(c.Request.Context())
	code := http.StatusOK
	state := "healthy"
	if !status.Connected {
		code = http.StatusServiceUnavailable
		state = "unhealthy"
	}
	c.JSON(code, gin.H{
		"status":    state,
		"database":  status,
		"timestamp": time.Now().UTC(),
	})
}
