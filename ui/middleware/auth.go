package middleware

import (
	"net/http"
	"strings"

	"redevdash/internal"
	"redevdash/internal/auth"
	"redevdash/internal/errors"
	"redevdash/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const claimsKey = "auth.claims"

// Authenticator verifies bearer tokens
type Authenticator interface {
	Authenticate(token string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the claims on the context
func RequireAuth(a Authenticator, logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			abort(c, errors.Unauthorized("Authorization token required"))
			return
		}

		claims, err := a.Authenticate(header)
		if err != nil {
			logger.Debug("[RequireAuth] rejected token for %s %s: %v", c.Request.Method, c.FullPath(), err)
			abort(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present and never rejects
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			if claims, err := a.Authenticate(header); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// Claims returns the verified claims of the request, if any
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// RequestMeta collects the caller details recorded in audit rows
func RequestMeta(c *gin.Context) models.RequestMeta {
	meta := models.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if claims, ok := Claims(c); ok {
		meta.Actor = claims.Username
		if id, err := uuid.Parse(claims.UserID); err == nil {
			meta.UserID = &id
		}
	}
	return meta
}

func abort(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errors.GetCode(err),
		"message": errors.PublicMessage(err),
	})
}
