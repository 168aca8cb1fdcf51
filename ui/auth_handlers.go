package ui

import (
	"net/http"

	"redevdash/app"
	"redevdash/internal/errors"
	"redevdash/ui/middleware"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleRegister(c *gin.Context) {
	var req app.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.ValidationError("Username, email, and password are required"))
		return
	}

	user, err := s.auth.Register(c.Request.Context(), req, middleware.RequestMeta(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": app.MsgRegistrationSubmitted,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"status":   user.Status,
		},
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req app.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.ValidationError("Username and password are required"))
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req, middleware.RequestMeta(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user":       result.User,
	})
}

func (s *Server) handleVerify(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&body)
	token := body.Token
	if token == "" {
		token = c.GetHeader("Authorization")
	}

	claims, err := s.auth.Authenticate(token)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"role":     claims.Role,
		},
	})
}

// handleLogout is stateless; clients drop the token
func (s *Server) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, errors.ValidationError("Email is required"))
		return
	}

	if err := s.auth.ForgotPassword(c.Request.Context(), body.Email, middleware.RequestMeta(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": app.MsgResetRequested})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, errors.ValidationError("Token and password are required"))
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), c.Param("token"), body.Password, middleware.RequestMeta(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset"})
}

// handleApprove activates the account and forwards the admin to the frontend
func (s *Server) handleApprove(c *gin.Context) {
	user, err := s.auth.Approve(c.Request.Context(), c.Param("token"), middleware.RequestMeta(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	username := c.Query("user")
	if username == "" {
		username = user.Username
	}
	c.Redirect(http.StatusFound, s.auth.ApprovalSuccessURL(username))
}

func (s *Server) handlePendingApprovals(c *gin.Context) {
	claims, _ := middleware.Claims(c)
	users, err := s.auth.PendingApprovals(c.Request.Context(), claims)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "count": len(users)})
}
