package ports

import (
	"context"

	"redevdash/models"
)

// Notifier delivers account lifecycle messages
type Notifier interface {
	RegistrationReceived(ctx context.Context, user *models.User) error
	ApprovalRequested(ctx context.Context, user *models.User, approvalLink string) error
	AccountApproved(ctx context.Context, user *models.User) error
	PasswordResetRequested(ctx context.Context, user *models.User, resetLink string) error
}
