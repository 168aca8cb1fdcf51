package notify

import (
	"context"

	"redevdash/internal"
	"redevdash/models"
	"redevdash/ports"

	"go.uber.org/zap"
)

// LogNotifier writes account notices to the log instead of sending mail
type LogNotifier struct {
	log        *internal.Logger
	adminEmail string
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs every message
func NewLogNotifier(logger *internal.Logger, adminEmail string) *LogNotifier {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &LogNotifier{log: logger.With(zap.String("component", "notifier")), adminEmail: adminEmail}
}

func (n *LogNotifier) RegistrationReceived(_ context.Context, user *models.User) error {
	n.log.Info("[Notifier] registration received for %s <%s>", user.DisplayName(), user.Email)
	return nil
}

func (n *LogNotifier) ApprovalRequested(_ context.Context, user *models.User, approvalLink string) error {
	to := n.adminEmail
	if to == "" {
		to = "(admin email not configured)"
	}
	n.log.Info("[Notifier] approval requested for %s, notify %s: %s", user.Username, to, approvalLink)
	return nil
}

func (n *LogNotifier) AccountApproved(_ context.Context, user *models.User) error {
	n.log.Info("[Notifier] account approved for %s <%s>", user.Username, user.Email)
	return nil
}

func (n *LogNotifier) PasswordResetRequested(_ context.Context, user *models.User, resetLink string) error {
	n.log.Info("[Notifier] password reset for %s <%s>: %s", user.Username, user.Email, resetLink)
	return nil
}
