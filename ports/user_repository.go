package ports

import (
	"context"
	"time"

	"redevdash/models"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// CreatePending inserts a pending_approval user and its audit row
	CreatePending(ctx context.Context, user *models.User, meta models.RequestMeta) error

	// Exists reports whether the username or email is taken
	Exists(ctx context.Context, username, email string) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByApprovalToken(ctx context.Context, token string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)

	Activate(ctx context.Context, id uuid.UUID, approvedBy string, meta models.RequestMeta) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ListPending(ctx context.Context) ([]models.User, error)

	// Audit appends a standalone audit row
	Audit(ctx context.Context, userID *uuid.UUID, action string, details models.JSONBMap, meta models.RequestMeta) error
}
