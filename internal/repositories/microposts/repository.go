// Package microposts declares the repository contract for posts and the
// feed query derived from them.
package microposts

import (
	"context"

	"github.com/dkrasnovs/microblog/internal/models"
)

// Repository defines persistence operations on microposts.
type Repository interface {
	// Create inserts a post and fills in the generated ID and CreatedAt.
	Create(ctx context.Context, post *models.Micropost) (*models.Micropost, error)

	// ByUser returns the user's own posts, newest first.
	ByUser(ctx context.Context, userID string, limit int) ([]models.Micropost, error)

	// Feed returns posts authored by the user and by everyone the user
	// follows, newest first. Implementations must express the membership
	// test as a single query, not one query per followee.
	Feed(ctx context.Context, userID string, limit int) ([]models.Micropost, error)

	// Delete removes a post owned by userID.
	Delete(ctx context.Context, id, userID string) error
}
