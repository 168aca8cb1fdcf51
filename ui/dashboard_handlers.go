package ui

import (
	"net/http"

	"redevdash/app"
	"redevdash/internal/errors"

	"github.com/gin-gonic/gin"
)

// handleDashboard runs the aggregation pipeline over the active projects
func (s *Server) handleDashboard(c *gin.Context) {
	var req app.ViewRequest
	if err := c.ShouldBindQuery(&req.Criteria); err != nil {
		s.writeError(c, errors.InvalidInput("invalid filter parameters: "+err.Error()))
		return
	}
	if err := c.ShouldBindQuery(&req.Sort); err != nil {
		s.writeError(c, errors.InvalidInput("invalid sort parameters: "+err.Error()))
		return
	}
	if err := c.ShouldBindQuery(&req.Search); err != nil {
		s.writeError(c, errors.InvalidInput("invalid search parameters: "+err.Error()))
		return
	}

	view, err := s.dashboard.View(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleDashboardStats(c *gin.Context) {
	stats, err := s.projects.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleFilterOptions(c *gin.Context) {
	opts, err := s.projects.FilterOptions(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}
