package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"redevdash/internal/errors"
	"redevdash/models"
	"redevdash/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, username, email, password_hash, full_name, status, role, approval_token,
	reset_token, reset_token_expiry, approved_at, approved_by, last_login, created_at, updated_at`

// UserRepositoryImpl implements UserRepository for PostgreSQL
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// CreatePending inserts a pending user together with its registration audit row
func (r *UserRepositoryImpl) CreatePending(ctx context.Context, user *models.User, meta models.RequestMeta) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Status = models.UserStatusPending
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, &user.CreatedAt, `
		INSERT INTO users (id, username, email, password_hash, full_name, status, role, approval_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.FullName, user.Status, user.Role, user.ApprovalToken)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.Conflict("Username or email already exists")
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.UpdatedAt = user.CreatedAt

	if err := insertAudit(ctx, tx, &user.ID, models.AuditRegistrationRequest, models.JSONBMap{
		"username": user.Username,
		"email":    user.Email,
		"status":   string(user.Status),
	}, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

// Exists reports whether the username or email is already registered
func (r *UserRepositoryImpl) Exists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)`, username, email)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByUsername retrieves a user by username
func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

// GetByEmail retrieves a user by email
func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

// GetByApprovalToken finds a pending user awaiting approval
func (r *UserRepositoryImpl) GetByApprovalToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, `WHERE approval_token = $1 AND status = 'pending_approval'`, token)
}

// GetByResetToken finds an active user holding an unexpired reset token
func (r *UserRepositoryImpl) GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users
		WHERE reset_token = $1 AND reset_token_expiry > $2 AND status = 'active'`, token, now)
	if err != nil {
		return nil, r.notFound(err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users `+where, arg); err != nil {
		return nil, r.notFound(err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) notFound(err error) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("user")
	}
	return fmt.Errorf("failed to fetch user: %w", err)
}

// Activate approves a pending user and records the approval
func (r *UserRepositoryImpl) Activate(ctx context.Context, id uuid.UUID, approvedBy string, meta models.RequestMeta) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET status = 'active', approval_token = NULL, approved_at = NOW(), approved_by = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending_approval'
	`, id, approvedBy)
	if err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("pending user")
	}

	if err := insertAudit(ctx, tx, &id, models.AuditAccountApproved, models.JSONBMap{
		"approved_by":     approvedBy,
		"approval_method": "token_link",
	}, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit approval: %w", err)
	}
	return nil
}

// SetResetToken stores a password reset token
func (r *UserRepositoryImpl) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = NOW() WHERE id = $1
	`, id, token, expiry)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// UpdatePassword replaces the hash and clears any reset token
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = NOW() WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// RecordLogin stamps the last login time
func (r *UserRepositoryImpl) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// ListPending returns users awaiting approval, newest first
func (r *UserRepositoryImpl) ListPending(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users
		WHERE status = 'pending_approval' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	return users, nil
}

// Audit appends a standalone audit row
func (r *UserRepositoryImpl) Audit(ctx context.Context, userID *uuid.UUID, action string, details models.JSONBMap, meta models.RequestMeta) error {
	return insertAudit(ctx, r.db, userID, action, details, meta)
}
