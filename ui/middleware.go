package ui

import (
	"net/http"
	"time"

	"redevdash/ui/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(s.cors())
}

func (s *Server) requestLogger() gin.HandlerFunc {
	logger := s.log.Zap()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if meta := middleware.RequestMeta(c); meta.Actor != "" {
			fields = append(fields, zap.String("user", meta.Actor))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("[API] request failed", fields...)
			return
		}
		logger.Debug("[API] request", fields...)
	}
}

// cors allows the configured frontend to call the API with credentials
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.frontendURL != "" {
			c.Header("Access-Control-Allow-Origin", s.frontendURL)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
