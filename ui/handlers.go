package ui

import (
	"net/http"
	"strconv"

	"redevdash/internal/errors"
	"redevdash/models"
	"redevdash/ui/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListProjects(c *gin.Context) {
	var filter models.ProjectFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		s.writeError(c, errors.InvalidInput("invalid query parameters: "+err.Error()))
		return
	}

	page, err := s.projects.List(c.Request.Context(), filter)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// handleGetProject looks a project up by numeric id, or by name otherwise
func (s *Server) handleGetProject(c *gin.Context) {
	param := c.Param("id")
	var (
		project *models.Project
		err     error
	)
	if id, parseErr := strconv.ParseInt(param, 10, 64); parseErr == nil {
		project, err = s.projects.Get(c.Request.Context(), id)
	} else {
		project, err = s.projects.GetByName(c.Request.Context(), param)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleProjectAnalysis(c *gin.Context) {
	id, ok := s.projectID(c)
	if !ok {
		return
	}
	analysis, err := s.projects.Analysis(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"markdown": analysis.Markdown(),
	})
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, errors.InvalidInput("request body must be a JSON object"))
		return
	}

	project, err := s.projects.Create(c.Request.Context(), body, middleware.RequestMeta(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.Info("[API] project %d created by %s", project.ID, middleware.RequestMeta(c).Actor)
	c.JSON(http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := s.projectID(c)
	if !ok {
		return
	}
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, errors.InvalidInput("request body must be a JSON object"))
		return
	}

	project, err := s.projects.Update(c.Request.Context(), id, body, middleware.RequestMeta(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := s.projectID(c)
	if !ok {
		return
	}
	project, err := s.projects.Delete(c.Request.Context(), id, middleware.RequestMeta(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project deleted",
		"project": project,
	})
}

func (s *Server) projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, errors.InvalidInput("project id must be a positive integer"))
		return 0, false
	}
	return id, true
}
