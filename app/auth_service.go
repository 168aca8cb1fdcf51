package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"redevdash/internal"
	"redevdash/internal/auth"
	"redevdash/internal/config"
	"redevdash/internal/errors"
	"redevdash/models"
	"redevdash/ports"

	"github.com/google/uuid"
)

// Messages returned to API clients
const (
	MsgRegistrationSubmitted = "Registration submitted for admin approval. You will receive an email once approved."
	MsgResetRequested        = "If your email exists in our system, you will receive a reset link"
)

// RegisterRequest is the registration body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest accepts a username or an email
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is a signed session
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService implements registration, approval, login and password reset
type AuthService struct {
	users    ports.UserRepository
	notifier ports.Notifier
	tokens   *auth.TokenManager
	cfg      config.AuthConfig
	log      *internal.Logger
	now      func() time.Time
}

// NewAuthService creates an auth service
func NewAuthService(users ports.UserRepository, notifier ports.Notifier, tokens *auth.TokenManager, cfg config.AuthConfig, logger *internal.Logger) *AuthService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AuthService{users: users, notifier: notifier, tokens: tokens, cfg: cfg, log: logger, now: time.Now}
}

// Register creates a pending account and asks an admin to approve it
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, meta models.RequestMeta) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, errors.ValidationError("Username, email, and password are required")
	}
	if err := s.checkDomain(req.Email); err != nil {
		return nil, err
	}

	exists, err := s.users.Exists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check existing users")
	}
	if exists {
		return nil, errors.Conflict("Username or email already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}
	token, err := auth.RandomToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create approval token")
	}

	user := &models.User{
		ID:            uuid.New(),
		Username:      req.Username,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          models.RoleUser,
		ApprovalToken: &token,
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		user.FullName = &name
	}
	if err := s.users.CreatePending(ctx, user, meta); err != nil {
		if errors.HasCode(err, errors.CodeConflict) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to register user")
	}

	if err := s.notifier.RegistrationReceived(ctx, user); err != nil {
		s.log.Warn("[AuthService] registration notice for %s failed: %v", user.Username, err)
	}
	link := fmt.Sprintf("%s/admin/approve/%s?user=%s", s.cfg.FrontendURL, token, url.QueryEscape(user.Username))
	if err := s.notifier.ApprovalRequested(ctx, user, link); err != nil {
		s.log.Warn("[AuthService] admin notice for %s failed: %v", user.Username, err)
	}

	s.log.Info("[AuthService] registration pending for %s", user.Username)
	return user, nil
}

// Approve activates the pending account holding the token
func (s *AuthService) Approve(ctx context.Context, token string, meta models.RequestMeta) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NotFound("approval token")
	}
	user, err := s.users.GetByApprovalToken(ctx, token)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.New(errors.CodeNotFound, "Invalid or expired approval token")
		}
		return nil, errors.Wrap(err, "failed to look up approval token")
	}

	approvedBy := meta.Actor
	if approvedBy == "" {
		approvedBy = "system"
	}
	if err := s.users.Activate(ctx, user.ID, approvedBy, meta); err != nil {
		return nil, errors.Wrap(err, "failed to approve user")
	}
	now := s.now()
	user.Status = models.UserStatusActive
	user.ApprovalToken = nil
	user.ApprovedAt = &now
	user.ApprovedBy = &approvedBy

	if err := s.notifier.AccountApproved(ctx, user); err != nil {
		s.log.Warn("[AuthService] approval notice for %s failed: %v", user.Username, err)
	}
	s.log.Info("[AuthService] approved %s", user.Username)
	return user, nil
}

// Login checks credentials of an active account and signs a token
func (s *AuthService) Login(ctx context.Context, req LoginRequest, meta models.RequestMeta) (*LoginResult, error) {
	identity := strings.TrimSpace(req.Username)
	if identity == "" || req.Password == "" {
		return nil, errors.ValidationError("Username and password are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identity, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identity))
	} else {
		user, err = s.users.GetByUsername(ctx, identity)
	}
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("Invalid credentials")
		}
		return nil, errors.Wrap(err, "failed to look up user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, errors.Unauthorized("Invalid credentials")
	}
	if !user.IsActive() {
		return nil, errors.Forbidden("Account is not active")
	}

	token, expires, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("[AuthService] failed to record login for %s: %v", user.Username, err)
	}
	if err := s.users.Audit(ctx, &user.ID, models.AuditLogin, models.JSONBMap{"username": user.Username}, meta); err != nil {
		s.log.Warn("[AuthService] failed to audit login for %s: %v", user.Username, err)
	}
	user.LastLogin = &now
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// ForgotPassword stores a reset token for an active account. The outcome is
// not revealed to the caller.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, meta models.RequestMeta) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.ValidationError("Email is required")
	}
	if err := s.checkDomain(email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil
		}
		return errors.Wrap(err, "failed to look up user")
	}
	if !user.IsActive() {
		return nil
	}

	token, err := auth.RandomToken()
	if err != nil {
		return errors.Wrap(err, "failed to create reset token")
	}
	expiry := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return errors.Wrap(err, "failed to store reset token")
	}

	sent := true
	link := fmt.Sprintf("%s/reset-password/%s", s.cfg.FrontendURL, token)
	if err := s.notifier.PasswordResetRequested(ctx, user, link); err != nil {
		sent = false
		s.log.Warn("[AuthService] reset notice for %s failed: %v", user.Username, err)
	}
	if err := s.users.Audit(ctx, &user.ID, models.AuditPasswordResetRequest, models.JSONBMap{"email_sent": sent}, meta); err != nil {
		s.log.Warn("[AuthService] failed to audit reset request: %v", err)
	}
	return nil
}

// ResetPassword sets a new password for the holder of a valid reset token
func (s *AuthService) ResetPassword(ctx context.Context, token, password string, meta models.RequestMeta) error {
	if strings.TrimSpace(token) == "" || password == "" {
		return errors.ValidationError("Token and password are required")
	}
	user, err := s.users.GetByResetToken(ctx, strings.TrimSpace(token), s.now())
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return errors.New(errors.CodeNotFound, "Invalid or expired reset token")
		}
		return errors.Wrap(err, "failed to look up reset token")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return errors.Wrap(err, "failed to update password")
	}
	if err := s.users.Audit(ctx, &user.ID, models.AuditPasswordReset, models.JSONBMap{}, meta); err != nil {
		s.log.Warn("[AuthService] failed to audit password reset: %v", err)
	}
	return nil
}

// PendingApprovals lists accounts awaiting approval; the caller must be an active admin
func (s *AuthService) PendingApprovals(ctx context.Context, claims *auth.Claims) ([]models.User, error) {
	if claims == nil {
		return nil, errors.Unauthorized("Unauthorized")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("Unauthorized")
	}
	caller, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.HasCode(err, errors.CodeNotFound) {
			return nil, errors.Forbidden("Admin access required")
		}
		return nil, errors.Wrap(err, "failed to look up caller")
	}
	if !caller.IsActive() || !caller.IsAdmin() {
		return nil, errors.Forbidden("Admin access required")
	}
	return s.users.ListPending(ctx)
}

// Authenticate verifies a bearer token
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	return s.tokens.Verify(token)
}

// ApprovalSuccessURL is where the approval link lands once the account is active
func (s *AuthService) ApprovalSuccessURL(username string) string {
	return fmt.Sprintf("%s/approval-success?user=%s", s.cfg.FrontendURL, url.QueryEscape(username))
}

func (s *AuthService) checkDomain(email string) error {
	domain := strings.ToLower(s.cfg.AllowedEmailDomain)
	if domain == "" {
		return nil
	}
	if !strings.HasSuffix(email, "@"+domain) {
		return errors.ValidationError(fmt.Sprintf("Only @%s email addresses are allowed", domain))
	}
	return nil
}
