package mailer

import (
	"context"

	"github.com/dkrasnovs/microblog/internal/logging"
	"github.com/dkrasnovs/microblog/internal/models"
)

// LogMailer writes would-be emails to the structured log. It is the
// development and test implementation; a real SMTP/API mailer satisfies the
// same interface.
type LogMailer struct {
	log logging.Logger
}

// NewLogMailer constructs a LogMailer over the given logger.
func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mailer")}
}

func (m *LogMailer) SendActivationEmail(ctx context.Context, user *models.User, activationToken string) error {
	m.log.Info(ctx, "account activation email",
		"to", user.Email, "user_id", user.ID, "token", activationToken)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, user *models.User, resetToken string) error {
	m.log.Info(ctx, "password reset email",
		"to", user.Email, "user_id", user.ID, "token", resetToken)
	return nil
}
