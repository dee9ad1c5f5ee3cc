// Package mailer defines the outbound email contract used by the account
// flows. Delivery is fire-and-forget from the caller's point of view: the
// core never waits for confirmation and treats delivery failure as
// out-of-band.
package mailer

import (
	"context"

	"github.com/dkrasnovs/microblog/internal/models"
)

// Mailer delivers the two account emails. The raw tokens are handed over
// exactly once and never persisted anywhere.
type Mailer interface {
	// SendActivationEmail delivers the account activation link containing
	// the raw activation token.
	SendActivationEmail(ctx context.Context, user *models.User, activationToken string) error

	// SendPasswordResetEmail delivers the password reset link containing
	// the raw reset token.
	SendPasswordResetEmail(ctx context.Context, user *models.User, resetToken string) error
}
