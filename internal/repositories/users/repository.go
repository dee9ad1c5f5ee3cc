// Package users declares the repository contract for user records.
package users

import (
	"context"

	"github.com/dkrasnovs/microblog/internal/models"
)

// Repository defines persistence operations on user records. Lookups return
// common.ErrorNotFound when no row matches.
type Repository interface {
	// Create inserts a new user and fills in the generated ID and CreatedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail looks a user up by email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID looks a user up by primary key.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// UpdateRememberDigest overwrites the stored remember digest. An empty
	// digest clears it, making any previously issued remember token
	// permanently unverifiable.
	UpdateRememberDigest(ctx context.Context, id string, digest string) error

	// Activate marks the user activated and stamps activated_at in a single
	// update, so no half-activated state is ever observable.
	Activate(ctx context.Context, id string) error

	// SetResetDigest stores a password-reset digest and its issuance time
	// together in a single update.
	SetResetDigest(ctx context.Context, id string, digest string) error

	// UpdatePasswordAndClearReset sets a new password digest and clears the
	// reset digest and timestamp in one update.
	UpdatePasswordAndClearReset(ctx context.Context, id string, passwordDigest string) error

	// Delete removes the user. Microposts and relationships on either side
	// go with it via FK cascade.
	Delete(ctx context.Context, id string) error
}
